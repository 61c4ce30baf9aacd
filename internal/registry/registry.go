// Package registry хранит неизменяемые упорядоченные таблицы игровых данных.
// Таблица строится один раз при старте; позиция записи служит её числовым ID.
package registry

import (
	"errors"
	"fmt"

	"github.com/annel0/voxelcore/internal/identity"
)

var (
	ErrDuplicatePath = errors.New("registry: duplicate path")
	ErrEmptyPath     = errors.New("registry: empty path")
)

// Entry пара путь-значение, в порядке объявления
type Entry[T any] struct {
	Path  string
	Value T
}

// Registry упорядоченная таблица: поиск по пути и по позиции
type Registry[T any] struct {
	entries []Entry[T]
	index   map[string]int
}

// Build строит таблицу, сохраняя порядок entries
func Build[T any](entries ...Entry[T]) (*Registry[T], error) {
	r := &Registry[T]{
		entries: make([]Entry[T], len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("%w at position %d", ErrEmptyPath, i)
		}
		if _, dup := r.index[e.Path]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, e.Path)
		}
		r.entries[i] = e
		r.index[e.Path] = i
	}
	return r, nil
}

// MustBuild как Build, но паникует. Для таблиц, объявленных в коде.
func MustBuild[T any](entries ...Entry[T]) *Registry[T] {
	r, err := Build(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// ByPath возвращает значение по пути
func (r *Registry[T]) ByPath(path string) (T, bool) {
	i, ok := r.index[path]
	if !ok {
		var zero T
		return zero, false
	}
	return r.entries[i].Value, true
}

// ByID возвращает значение по позиции
func (r *Registry[T]) ByID(id int) (T, bool) {
	if id < 0 || id >= len(r.entries) {
		var zero T
		return zero, false
	}
	return r.entries[id].Value, true
}

// PathToID возвращает позицию записи
func (r *Registry[T]) PathToID(path string) (int, bool) {
	i, ok := r.index[path]
	return i, ok
}

// IDToPath возвращает путь записи по позиции
func (r *Registry[T]) IDToPath(id int) (string, bool) {
	if id < 0 || id >= len(r.entries) {
		return "", false
	}
	return r.entries[id].Path, true
}

// Len возвращает число записей
func (r *Registry[T]) Len() int {
	return len(r.entries)
}

// Each обходит записи в порядке объявления, пока fn возвращает true
func (r *Registry[T]) Each(fn func(id int, path string, value T) bool) {
	for i, e := range r.entries {
		if !fn(i, e.Path, e.Value) {
			return
		}
	}
}

// Namespaces связывает пространства имён с таблицами и разрешает ResourceID
type Namespaces[T any] struct {
	byNamespace map[string]*Registry[T]
}

// NewNamespaces создаёт пустой набор
func NewNamespaces[T any]() *Namespaces[T] {
	return &Namespaces[T]{byNamespace: make(map[string]*Registry[T])}
}

// Add регистрирует таблицу под пространством имён, заменяя прежнюю
func (n *Namespaces[T]) Add(namespace string, r *Registry[T]) *Namespaces[T] {
	n.byNamespace[namespace] = r
	return n
}

// Registry возвращает таблицу пространства имён
func (n *Namespaces[T]) Registry(namespace string) (*Registry[T], bool) {
	r, ok := n.byNamespace[namespace]
	return r, ok
}

// Resolve находит значение по идентификатору ресурса
func (n *Namespaces[T]) Resolve(id identity.ResourceID) (T, bool) {
	r, ok := n.byNamespace[id.Namespace()]
	if !ok {
		var zero T
		return zero, false
	}
	return r.ByPath(id.Path())
}

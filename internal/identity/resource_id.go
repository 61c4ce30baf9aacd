package identity

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultNamespace пространство имён для идентификаторов без префикса
const DefaultNamespace = "voxelcore"

var ErrInvalidResourceID = errors.New("identity: invalid resource id")

// ResourceID идентификатор ресурса вида namespace:path.
// Обе части интернированы, поэтому ResourceID сравнивается через == и годится как ключ карты.
type ResourceID struct {
	namespace Handle
	path      Handle
}

// New проверяет части и создаёт идентификатор
func New(namespace, path string) (ResourceID, error) {
	if !validNamespace(namespace) {
		return ResourceID{}, fmt.Errorf("%w: namespace %q", ErrInvalidResourceID, namespace)
	}
	if !validPath(path) {
		return ResourceID{}, fmt.Errorf("%w: path %q", ErrInvalidResourceID, path)
	}
	return ResourceID{namespace: Intern(namespace), path: Intern(path)}, nil
}

// WithDefaultNamespace создаёт идентификатор в пространстве DefaultNamespace
func WithDefaultNamespace(path string) (ResourceID, error) {
	return New(DefaultNamespace, path)
}

// Parse разбирает строку "namespace:path" или "path"
func Parse(location string) (ResourceID, error) {
	namespace, path, ok := strings.Cut(location, ":")
	if !ok {
		return WithDefaultNamespace(location)
	}
	return New(namespace, path)
}

// MustParse как Parse, но паникует на неверной строке. Для статических таблиц.
func MustParse(location string) ResourceID {
	id, err := Parse(location)
	if err != nil {
		panic(err)
	}
	return id
}

// Namespace возвращает пространство имён
func (id ResourceID) Namespace() string {
	return id.namespace.String()
}

// Path возвращает путь
func (id ResourceID) Path() string {
	return id.path.String()
}

// IsZero сообщает, что идентификатор не задан
func (id ResourceID) IsZero() bool {
	return id == ResourceID{}
}

func (id ResourceID) String() string {
	return id.Namespace() + ":" + id.Path()
}

// MarshalText реализует encoding.TextMarshaler
func (id ResourceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (id *ResourceID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func validNamespace(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) && s[i] != '_' && s[i] != '-' {
			return false
		}
	}
	return true
}

func validPath(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) && s[i] != '_' && s[i] != '-' && s[i] != '/' {
			return false
		}
	}
	return true
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

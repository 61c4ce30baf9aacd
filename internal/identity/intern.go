package identity

import "sync"

// Handle ссылается на строку в таблице интернирования. Нулевой Handle - пустая строка.
type Handle uint32

// Interner - таблица строк, которая только растёт: записи живут до конца процесса.
// Чтение идёт под read-lock, добавление под write-lock.
type Interner struct {
	mu      sync.RWMutex
	index   map[string]Handle
	entries []string
}

var global = NewInterner()

// NewInterner создаёт таблицу, в которой уже есть пустая строка под Handle 0
func NewInterner() *Interner {
	return &Interner{
		index:   map[string]Handle{"": 0},
		entries: []string{""},
	}
}

// Intern возвращает Handle строки, добавляя её при первом обращении
func (in *Interner) Intern(s string) Handle {
	in.mu.RLock()
	h, ok := in.index[s]
	in.mu.RUnlock()
	if ok {
		return h
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	// Проверяем еще раз: строку могли добавить между блокировками
	if h, ok := in.index[s]; ok {
		return h
	}

	h = Handle(len(in.entries))
	in.entries = append(in.entries, s)
	in.index[s] = h
	return h
}

// Lookup возвращает строку по Handle. Для чужого Handle вернёт false.
func (in *Interner) Lookup(h Handle) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	if int(h) >= len(in.entries) {
		return "", false
	}
	return in.entries[h], true
}

// Len возвращает число строк в таблице, включая пустую
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.entries)
}

// Intern интернирует строку в глобальной таблице процесса
func Intern(s string) Handle {
	return global.Intern(s)
}

// String возвращает строку из глобальной таблицы
func (h Handle) String() string {
	s, _ := global.Lookup(h)
	return s
}

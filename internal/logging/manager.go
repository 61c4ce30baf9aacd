package logging

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// LoggerManager держит по одному логгеру на компонент, чтобы файлы
// компонентов открывались один раз и закрывались вместе.
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// NewLoggerManager создаёт пустой менеджер
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{loggers: make(map[string]*Logger)}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// Logger возвращает логгер компонента. Если файл открыть не удалось,
// компонент пишет только в консоль.
func (lm *LoggerManager) Logger(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l
	}
	l, err := NewLogger(component)
	if err != nil {
		l = NewWriterLogger(component, os.Stdout, currentOptions().ConsoleLevel)
		l.Warn("file sink unavailable: %v", err)
	}
	lm.loggers[component] = l
	return l
}

// CloseAll закрывает файлы всех компонентов и забывает их логгеры
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", component, err))
		}
	}
	clear(lm.loggers)
	return errors.Join(errs...)
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().Logger(component)
}

func GetStorageLogger() *Logger {
	return GetComponentLogger("storage")
}

func GetWorldgenLogger() *Logger {
	return GetComponentLogger("worldgen")
}

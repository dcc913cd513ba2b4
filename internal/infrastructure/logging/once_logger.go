package logging

import (
	"sync"

	"pdfshrink/internal/domain/repositories"
)

// OnceLogger подавляет повторные предупреждения с одинаковым ключом.
// Создается на один запуск сжатия, поэтому ключи не копятся между файлами.
type OnceLogger struct {
	repositories.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewOnceLogger оборачивает логгер
func NewOnceLogger(logger repositories.Logger) *OnceLogger {
	return &OnceLogger{
		Logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// WarningOnce пишет предупреждение, если ключ встречается впервые
func (l *OnceLogger) WarningOnce(key, format string, args ...interface{}) bool {
	l.mu.Lock()
	_, dup := l.seen[key]
	if !dup {
		l.seen[key] = struct{}{}
	}
	l.mu.Unlock()

	if dup {
		return false
	}
	l.Logger.Warning(format, args...)
	return true
}

// Close не закрывает вложенный логгер: он живет дольше запуска
func (l *OnceLogger) Close() error {
	return nil
}

// PerRun обертка для CompressPDFUseCase.SetRunLogger
func PerRun(logger repositories.Logger) repositories.Logger {
	return NewOnceLogger(logger)
}

package tui

import (
	"fmt"

	"pdfshrink/internal/domain/repositories"
)

// UILogger адаптер логгера для отображения в UI
type UILogger struct {
	inner      repositories.Logger
	tuiManager *Manager
}

// NewUILogger создает новый UI логгер поверх основного логгера
func NewUILogger(inner repositories.Logger, tuiManager *Manager) *UILogger {
	return &UILogger{
		inner:      inner,
		tuiManager: tuiManager,
	}
}

func (l *UILogger) show(level, format string, args ...interface{}) {
	if l.tuiManager != nil {
		l.tuiManager.AddLog(level, fmt.Sprintf(format, args...))
	}
}

// Debug логирует отладочное сообщение. В окно журнала не попадает.
func (l *UILogger) Debug(format string, args ...interface{}) {
	if l.inner != nil {
		l.inner.Debug(format, args...)
	}
}

// Info логирует информационное сообщение
func (l *UILogger) Info(format string, args ...interface{}) {
	if l.inner != nil {
		l.inner.Info(format, args...)
	}
	l.show("INFO", format, args...)
}

// Warning логирует предупреждение
func (l *UILogger) Warning(format string, args ...interface{}) {
	if l.inner != nil {
		l.inner.Warning(format, args...)
	}
	l.show("WARNING", format, args...)
}

// Error логирует ошибку
func (l *UILogger) Error(format string, args ...interface{}) {
	if l.inner != nil {
		l.inner.Error(format, args...)
	}
	l.show("ERROR", format, args...)
}

// Success логирует успешное выполнение
func (l *UILogger) Success(format string, args ...interface{}) {
	if l.inner != nil {
		l.inner.Success(format, args...)
	}
	l.show("SUCCESS", format, args...)
}

// Close закрывает основной логгер
func (l *UILogger) Close() error {
	if l.inner != nil {
		return l.inner.Close()
	}
	return nil
}

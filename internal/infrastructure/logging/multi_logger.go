package logging

import (
	"errors"

	"pdfshrink/internal/domain/repositories"
)

// MultiLogger пишет каждое сообщение во все вложенные логгеры
type MultiLogger struct {
	loggers []repositories.Logger
}

// NewMultiLogger объединяет логгеры, nil пропускаются
func NewMultiLogger(loggers ...repositories.Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil && !isNilFileLogger(l) {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// isNilFileLogger NewFileLogger возвращает nil при выключенной записи в файл
func isNilFileLogger(l repositories.Logger) bool {
	fl, ok := l.(*FileLogger)
	return ok && fl == nil
}

func (m *MultiLogger) Debug(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Debug(format, args...)
	}
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Info(format, args...)
	}
}

func (m *MultiLogger) Warning(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Warning(format, args...)
	}
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Error(format, args...)
	}
}

func (m *MultiLogger) Success(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Success(format, args...)
	}
}

// Close закрывает все логгеры и возвращает объединенную ошибку
func (m *MultiLogger) Close() error {
	var errs []error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

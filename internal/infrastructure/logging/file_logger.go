package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// FileLogger реализация логгера поверх logrus: в файл или в консоль
type FileLogger struct {
	file   *os.File
	logger *logrus.Logger
}

// NewFileLogger создает новый файловый логгер. Если файл больше maxSizeMB,
// он переименовывается в <имя>.1 и начинается заново.
func NewFileLogger(filename, logLevel string, maxSizeMB int, logToFile bool) (*FileLogger, error) {
	if !logToFile {
		return nil, nil
	}

	if err := rotate(filename, maxSizeMB); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	l := newWriterLogger(file, logLevel, true)
	l.file = file
	return l, nil
}

// NewConsoleLogger создает логгер для вывода в терминал
func NewConsoleLogger(w io.Writer, logLevel string) *FileLogger {
	return newWriterLogger(w, logLevel, false)
}

func newWriterLogger(w io.Writer, logLevel string, disableColors bool) *FileLogger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(ParseLevel(logLevel))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
		DisableColors:   disableColors,
	})

	return &FileLogger{logger: logger}
}

// ParseLevel переводит уровень из конфигурации, по умолчанию info
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func rotate(filename string, maxSizeMB int) error {
	if maxSizeMB <= 0 {
		return nil
	}
	info, err := os.Stat(filename)
	if err != nil || info.Size() < int64(maxSizeMB)*1024*1024 {
		return nil
	}
	if err := os.Rename(filename, filename+".1"); err != nil {
		return fmt.Errorf("ротация лога %s: %w", filename, err)
	}
	return nil
}

// Debug логирует отладочное сообщение
func (l *FileLogger) Debug(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Info логирует информационное сообщение
func (l *FileLogger) Info(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// Warning логирует предупреждение
func (l *FileLogger) Warning(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

// Error логирует ошибку
func (l *FileLogger) Error(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// Success логирует успешное выполнение
func (l *FileLogger) Success(format string, args ...interface{}) {
	l.logger.WithField("status", "success").Infof(format, args...)
}

// Close закрывает логгер
func (l *FileLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

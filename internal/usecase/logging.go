package usecases

import "pdfshrink/internal/domain/repositories"

// nopLogger используется, когда логгер не передан
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
func (nopLogger) Success(string, ...interface{}) {}
func (nopLogger) Close() error                   { return nil }

func loggerOrNop(logger repositories.Logger) repositories.Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}

// warnOnce пишет предупреждение один раз на ключ, если логгер это умеет
func warnOnce(logger repositories.Logger, key, format string, args ...interface{}) {
	if dedup, ok := logger.(repositories.DedupLogger); ok {
		dedup.WarningOnce(key, format, args...)
		return
	}
	logger.Warning(format, args...)
}

package entities

import "time"

// Config содержимое config.yaml
type Config struct {
	Scanner     ScannerConfig        `yaml:"scanner"`
	Compression AppCompressionConfig `yaml:"compression"`
	Processing  ProcessingConfig     `yaml:"processing"`
	Output      OutputConfig         `yaml:"output"`
	Server      ServerConfig         `yaml:"server"`
	History     HistoryConfig        `yaml:"history"`
}

// ScannerConfig откуда брать PDF и куда класть результат
type ScannerConfig struct {
	SourceDirectory string `yaml:"source_directory"`
	TargetDirectory string `yaml:"target_directory"`
	ReplaceOriginal bool   `yaml:"replace_original"`
}

// AppCompressionConfig параметры конвейера сжатия
type AppCompressionConfig struct {
	Engine           string `yaml:"engine"`
	AutoStart        bool   `yaml:"auto_start"`
	PostOptimize     bool   `yaml:"post_optimize"`
	UniPDFLicenseKey string `yaml:"unipdf_license_key"`
	// Явная цель в KB, 0 - брать из профиля
	DefaultTargetKB float64 `yaml:"default_target_kb"`
	// Пересжатие встроенных JPEG изображений
	ResampleImages bool `yaml:"resample_images"`
}

// ProcessingConfig воркеры, повторы и бюджет времени
type ProcessingConfig struct {
	ParallelWorkers int `yaml:"parallel_workers"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
	RetryAttempts   int `yaml:"retry_attempts"`
}

// OutputConfig журнал и прогресс
type OutputConfig struct {
	LogLevel     string `yaml:"log_level"`
	ProgressBar  bool   `yaml:"progress_bar"`
	LogToFile    bool   `yaml:"log_to_file"`
	LogFileName  string `yaml:"log_file_name"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	Address        string   `yaml:"address"`
	UploadDir      string   `yaml:"upload_dir"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HistoryConfig настройки журнала сжатий
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// Timeout возвращает бюджет времени на обработку одного файла
func (p ProcessingConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Validate проверяет корректность конфигурации приложения
func (c *Config) Validate() error {
	switch c.Compression.Engine {
	case "", EnginePDFCPU:
	default:
		return ErrUnknownEngine
	}
	if !validTarget(c.Compression.DefaultTargetKB) {
		return ErrInvalidTargetSize
	}
	if c.Processing.ParallelWorkers < 0 || c.Processing.RetryAttempts < 0 || c.Processing.TimeoutSeconds < 0 {
		return ErrInvalidProcessing
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdfshrink/internal/domain/entities"
)

// EnvPrefix префикс переменных окружения приложения
const EnvPrefix = "PDFSHRINK_"

// Repository реализация репозитория конфигурации
type Repository struct {
	lookupEnv func(string) (string, bool)
}

// NewRepository создает новый репозиторий конфигурации
func NewRepository() *Repository {
	return &Repository{lookupEnv: os.LookupEnv}
}

// Load загружает конфигурацию из файла поверх значений по умолчанию и
// применяет переопределения из окружения
func (r *Repository) Load(configPath string) (*entities.Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// Файла нет, работаем на значениях по умолчанию
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора %s: %w", configPath, err)
		}
	}

	if err := r.applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save сохраняет конфигурацию в файл
func (r *Repository) Save(configPath string, config *entities.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// DefaultConfig конфигурация по умолчанию
func DefaultConfig() *entities.Config {
	return &entities.Config{
		Scanner: entities.ScannerConfig{
			SourceDirectory: "./pdfs",
			TargetDirectory: "./compressed",
			ReplaceOriginal: false,
		},
		Compression: entities.AppCompressionConfig{
			Engine:         entities.EnginePDFCPU,
			AutoStart:      false,
			PostOptimize:   false,
			ResampleImages: true,
		},
		Processing: entities.ProcessingConfig{
			ParallelWorkers: 2,
			TimeoutSeconds:  120,
			RetryAttempts:   3,
		},
		Output: entities.OutputConfig{
			LogLevel:     "info",
			ProgressBar:  true,
			LogToFile:    true,
			LogFileName:  "pdfshrink.log",
			LogMaxSizeMB: 10,
		},
		Server: entities.ServerConfig{
			Address:        ":8080",
			UploadDir:      os.TempDir(),
			MaxUploadMB:    100,
			AllowedOrigins: []string{"*"},
		},
		History: entities.HistoryConfig{
			Enabled:      true,
			DatabasePath: "pdfshrink.db",
		},
	}
}

// applyEnv переопределяет поля из PDFSHRINK_* переменных
func (r *Repository) applyEnv(c *entities.Config) error {
	strs := map[string]*string{
		"SOURCE_DIR":         &c.Scanner.SourceDirectory,
		"TARGET_DIR":         &c.Scanner.TargetDirectory,
		"ENGINE":             &c.Compression.Engine,
		"LOG_LEVEL":          &c.Output.LogLevel,
		"LOG_FILE":           &c.Output.LogFileName,
		"SERVER_ADDR":        &c.Server.Address,
		"UPLOAD_DIR":         &c.Server.UploadDir,
		"HISTORY_DB":         &c.History.DatabasePath,
		"UNIPDF_LICENSE_KEY": &c.Compression.UniPDFLicenseKey,
	}
	for name, dst := range strs {
		if v, ok := r.lookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKERS":         &c.Processing.ParallelWorkers,
		"TIMEOUT_SECONDS": &c.Processing.TimeoutSeconds,
		"RETRY_ATTEMPTS":  &c.Processing.RetryAttempts,
		"MAX_UPLOAD_MB":   &c.Server.MaxUploadMB,
	}
	for name, dst := range ints {
		if v, ok := r.lookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"REPLACE_ORIGINAL": &c.Scanner.ReplaceOriginal,
		"POST_OPTIMIZE":    &c.Compression.PostOptimize,
		"RESAMPLE_IMAGES":  &c.Compression.ResampleImages,
		"HISTORY_ENABLED":  &c.History.Enabled,
		"LOG_TO_FILE":      &c.Output.LogToFile,
	}
	for name, dst := range bools {
		if v, ok := r.lookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}

	if v, ok := r.lookupEnv(EnvPrefix + "TARGET_KB"); ok {
		kb, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sTARGET_KB: %w", EnvPrefix, err)
		}
		c.Compression.DefaultTargetKB = kb
	}

	if v, ok := r.lookupEnv(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	// Ключ UniPDF можно задать стандартной переменной библиотеки
	if c.Compression.UniPDFLicenseKey == "" {
		if v, ok := r.lookupEnv("UNIDOC_LICENSE_API_KEY"); ok {
			c.Compression.UniPDFLicenseKey = v
		}
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadDotEnv подгружает .env файлы; отсутствие файла не ошибка.
// Уже заданные переменные окружения не перезаписываются.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("ошибка загрузки %s: %w", p, err)
		}
	}
	return nil
}

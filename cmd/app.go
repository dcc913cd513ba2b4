package main

import (
	"fmt"
	"io"
	"log"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/compressors"
	"pdfshrink/internal/infrastructure/config"
	"pdfshrink/internal/infrastructure/logging"
	infraRepos "pdfshrink/internal/infrastructure/repositories"
	usecases "pdfshrink/internal/usecase"
)

// application общие зависимости всех команд
type application struct {
	configPath string
	configRepo *config.Repository
	config     *entities.Config

	fileLogger *logging.FileLogger
	fileRepo   *infraRepos.FileSystemRepository
	history    repositories.HistoryRepository
}

// newApplication загружает конфигурацию и поднимает инфраструктуру
func newApplication(configPath string) (*application, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Предупреждение: не удалось загрузить .env: %v", err)
	}

	configRepo := config.NewRepository()
	appConfig, err := configRepo.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	fileLogger, err := logging.NewFileLogger(
		appConfig.Output.LogFileName,
		appConfig.Output.LogLevel,
		appConfig.Output.LogMaxSizeMB,
		appConfig.Output.LogToFile,
	)
	if err != nil {
		log.Printf("Предупреждение: не удалось инициализировать логгер: %v", err)
	}

	history, err := infraRepos.NewHistoryRepository(appConfig.History)
	if err != nil {
		log.Printf("Предупреждение: журнал сжатий отключен: %v", err)
		history = infraRepos.NopHistoryRepository{}
	}

	return &application{
		configPath: configPath,
		configRepo: configRepo,
		config:     appConfig,
		fileLogger: fileLogger,
		fileRepo:   infraRepos.NewFileSystemRepository().WithPageCounter(compressors.NewReaderPageCounter()),
		history:    history,
	}, nil
}

// consoleLogger пишет в файл журнала и в w
func (a *application) consoleLogger(w io.Writer) repositories.Logger {
	return logging.NewMultiLogger(a.fileLogger, logging.NewConsoleLogger(w, a.config.Output.LogLevel))
}

// newCompressor собирает конвейер сжатия одного файла
func (a *application) newCompressor(cfg *entities.Config, logger repositories.Logger) *usecases.CompressPDFUseCase {
	uc := usecases.NewCompressPDFUseCase(
		compressors.NewPDFCPULoader(),
		a.fileRepo,
		logger,
		usecases.CompressOptions{
			RefineTimeout:   cfg.Processing.Timeout(),
			DefaultTargetKB: cfg.Compression.DefaultTargetKB,
			ResampleImages:  cfg.Compression.ResampleImages,
		},
	)
	uc.SetRunLogger(logging.PerRun)
	uc.SetImageResampler(compressors.NewJPEGResampler())
	uc.SetPageCounter(compressors.NewReaderPageCounter())
	uc.SetHistory(a.history)

	if cfg.Compression.PostOptimize {
		post, err := compressors.NewUniPDFOptimizer(cfg.Compression.UniPDFLicenseKey, logger)
		if err != nil {
			logger.Warning("Финальный проход UniPDF отключен: %v", err)
		} else {
			uc.SetPostOptimizer(post)
		}
	}

	return uc
}

// newBatch собирает пакетную обработку директории
func (a *application) newBatch(cfg *entities.Config, logger repositories.Logger) *usecases.ProcessPDFsUseCase {
	return usecases.NewProcessPDFsUseCase(a.newCompressor(cfg, logger), a.fileRepo, logger)
}

// Close освобождает файл журнала и базу истории
func (a *application) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Printf("Ошибка закрытия журнала сжатий: %v", err)
		}
	}
	if a.fileLogger != nil {
		a.fileLogger.Close()
	}
}

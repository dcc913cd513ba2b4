package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// FileCompressor сжимает один файл
type FileCompressor interface {
	Execute(ctx context.Context, req entities.CompressionRequest) (*entities.CompressionResult, error)
}

// fileOutcome результат обработки одного файла воркером
type fileOutcome struct {
	path   string
	size   int64
	result *entities.CompressionResult
	err    error
}

// ProcessPDFsUseCase пакетная обработка директории с PDF файлами
type ProcessPDFsUseCase struct {
	compressor       FileCompressor
	fileRepo         repositories.FileRepository
	logger           repositories.Logger
	progressReporter func(entities.ProcessingStatus)
	retryDelay       time.Duration
}

// NewProcessPDFsUseCase создает новый сценарий обработки PDF
func NewProcessPDFsUseCase(
	compressor FileCompressor,
	fileRepo repositories.FileRepository,
	logger repositories.Logger,
) *ProcessPDFsUseCase {
	return &ProcessPDFsUseCase{
		compressor: compressor,
		fileRepo:   fileRepo,
		logger:     loggerOrNop(logger),
		retryDelay: 2 * time.Second,
	}
}

// SetProgressReporter устанавливает функцию для отчета о прогрессе
func (uc *ProcessPDFsUseCase) SetProgressReporter(reporter func(entities.ProcessingStatus)) {
	uc.progressReporter = reporter
}

// SetRetryDelay задает паузу между повторными попытками
func (uc *ProcessPDFsUseCase) SetRetryDelay(d time.Duration) {
	uc.retryDelay = d
}

func (uc *ProcessPDFsUseCase) reportProgress(status *entities.ProcessingStatus) {
	if uc.progressReporter != nil {
		uc.progressReporter(*status)
	}
}

func (uc *ProcessPDFsUseCase) fail(status *entities.ProcessingStatus, err error) error {
	status.Fail(err)
	uc.reportProgress(status)
	return err
}

// Execute обрабатывает все PDF файлы исходной директории
func (uc *ProcessPDFsUseCase) Execute(ctx context.Context, config *entities.Config) (*entities.ProcessingStatus, error) {
	status := entities.NewProcessingStatus(0)
	status.SetPhase(entities.PhaseInitializing, "Инициализация обработки...")
	uc.reportProgress(status)

	uc.logger.Info("Начало обработки PDF файлов")
	uc.logger.Info("Исходная директория: %s", config.Scanner.SourceDirectory)
	if config.Scanner.ReplaceOriginal {
		uc.logger.Info("Режим: замена оригинальных файлов")
	} else {
		uc.logger.Info("Целевая директория: %s", config.Scanner.TargetDirectory)
	}
	uc.logger.Info("Параллельных воркеров: %d", config.Processing.ParallelWorkers)

	if err := config.Validate(); err != nil {
		return status, uc.fail(status, fmt.Errorf("некорректная конфигурация: %w", err))
	}

	if !uc.fileRepo.FileExists(config.Scanner.SourceDirectory) {
		return status, uc.fail(status, fmt.Errorf("%w: %s", entities.ErrDirectoryNotFound, config.Scanner.SourceDirectory))
	}

	if !config.Scanner.ReplaceOriginal {
		if err := uc.fileRepo.CreateDirectory(config.Scanner.TargetDirectory); err != nil {
			return status, uc.fail(status, fmt.Errorf("ошибка создания целевой директории: %w", err))
		}
	}

	status.SetPhase(entities.PhaseScanning, "Сканирование PDF файлов...")
	uc.reportProgress(status)

	files, err := uc.fileRepo.ListPDFFiles(config.Scanner.SourceDirectory)
	if err != nil {
		return status, uc.fail(status, fmt.Errorf("ошибка получения списка файлов: %w", err))
	}

	if len(files) == 0 {
		uc.logger.Warning("PDF файлы не найдены в директории: %s", config.Scanner.SourceDirectory)
		status.Complete()
		uc.reportProgress(status)
		return status, nil
	}

	status.TotalFiles = len(files)
	uc.logger.Success("Найдено файлов для обработки: %d", len(files))

	status.SetPhase(entities.PhaseCompressing, "Сжатие PDF файлов...")
	uc.reportProgress(status)

	workers := config.Processing.ParallelWorkers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan string, len(files))
	results := make(chan fileOutcome, len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go uc.worker(ctx, jobs, results, &wg, config)
	}

	for _, file := range files {
		jobs <- file
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	counter := 0
	for outcome := range results {
		counter++
		status.SetCurrentFile(outcome.path, outcome.size)
		status.AddResult(outcome.result, outcome.err)
		uc.reportProgress(status)

		fileName := filepath.Base(outcome.path)
		if outcome.err != nil {
			uc.logger.Error("[%d/%d] %s: %v", counter, status.TotalFiles, fileName, outcome.err)
			continue
		}
		r := outcome.result
		uc.logger.Info("[%d/%d] %s: %.2f MB → %.2f MB, сжатие %d%%, профиль %s, итераций %d",
			counter, status.TotalFiles, fileName,
			entities.BytesToMB(r.OriginalSize), entities.BytesToMB(r.CompressedSize),
			r.CompressionRatioPercent, r.Profile.Tier, r.Iterations)
	}

	status.Complete()
	uc.reportProgress(status)

	uc.logger.Info("Обработка завершена за %s", status.FormatElapsedTime())
	uc.logger.Success("Успешно: %d из %d", status.SuccessfulFiles, status.TotalFiles)
	if status.FailedFiles > 0 {
		uc.logger.Error("Ошибок: %d", status.FailedFiles)
	}
	if status.MissedTargets > 0 {
		uc.logger.Warning("Цель по размеру не достигнута: %d", status.MissedTargets)
	}
	if status.TotalOriginalSize > 0 {
		uc.logger.Success("Среднее сжатие: %.1f%%, сэкономлено %.2f MB",
			status.AverageCompression, entities.BytesToMB(status.TotalSavedSpace))
	}

	return status, nil
}

func (uc *ProcessPDFsUseCase) worker(
	ctx context.Context,
	jobs <-chan string,
	results chan<- fileOutcome,
	wg *sync.WaitGroup,
	config *entities.Config,
) {
	defer wg.Done()

	for inputFile := range jobs {
		results <- uc.processFile(ctx, inputFile, config)
	}
}

func (uc *ProcessPDFsUseCase) processFile(ctx context.Context, inputFile string, config *entities.Config) fileOutcome {
	outcome := fileOutcome{path: inputFile}

	if err := ctx.Err(); err != nil {
		outcome.err = err
		return outcome
	}

	if info, err := uc.fileRepo.GetFileInfo(inputFile); err == nil {
		outcome.size = info.Size
	}

	outputFile, err := uc.outputPath(inputFile, config)
	if err != nil {
		outcome.err = err
		return outcome
	}

	req := entities.CompressionRequest{
		InputPath:    inputFile,
		OutputPath:   outputFile,
		TargetSizeKB: config.Compression.DefaultTargetKB,
	}

	attempts := config.Processing.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	fileName := filepath.Base(inputFile)
	for attempt := 0; attempt < attempts; attempt++ {
		outcome.result, outcome.err = uc.compressor.Execute(ctx, req)
		// Поврежденный файл не станет целым при повторе
		if outcome.err == nil || isLoadError(outcome.err) || ctx.Err() != nil {
			break
		}
		if attempt < attempts-1 {
			uc.logger.Warning("Попытка %d/%d для файла %s не удалась: %v", attempt+1, attempts, fileName, outcome.err)
			select {
			case <-ctx.Done():
				return outcome
			case <-time.After(uc.retryDelay):
			}
		}
	}

	if outcome.err != nil || !config.Scanner.ReplaceOriginal {
		return outcome
	}

	if err := uc.replaceOriginalFile(inputFile, outputFile); err != nil {
		_ = os.Remove(outputFile)
		outcome.err = fmt.Errorf("ошибка замены оригинального файла: %w", err)
		return outcome
	}
	outcome.result.OutputPath = inputFile
	return outcome
}

func isLoadError(err error) bool {
	var loadErr *entities.LoadError
	return errors.As(err, &loadErr)
}

// outputPath повторяет структуру исходной директории в целевой
func (uc *ProcessPDFsUseCase) outputPath(inputFile string, config *entities.Config) (string, error) {
	if config.Scanner.ReplaceOriginal {
		return inputFile + ".tmp", nil
	}

	relPath, err := filepath.Rel(config.Scanner.SourceDirectory, inputFile)
	if err != nil {
		return filepath.Join(config.Scanner.TargetDirectory, filepath.Base(inputFile)), nil
	}

	outputFile := filepath.Join(config.Scanner.TargetDirectory, relPath)
	if err := uc.fileRepo.CreateDirectory(filepath.Dir(outputFile)); err != nil {
		return "", fmt.Errorf("не удалось создать директорию %s: %w", filepath.Dir(outputFile), err)
	}
	return outputFile, nil
}

// replaceOriginalFile заменяет оригинал сжатой версией через резервную копию
func (uc *ProcessPDFsUseCase) replaceOriginalFile(originalFile, tempFile string) error {
	if _, err := os.Stat(tempFile); os.IsNotExist(err) {
		return fmt.Errorf("временный файл не существует: %s", tempFile)
	}

	backupFile := originalFile + ".backup"

	if err := os.Rename(originalFile, backupFile); err != nil {
		return fmt.Errorf("ошибка создания резервной копии: %w", err)
	}

	if err := os.Rename(tempFile, originalFile); err != nil {
		// Возвращаем оригинал на место
		_ = os.Rename(backupFile, originalFile)
		return fmt.Errorf("ошибка замены файла: %w", err)
	}

	if err := os.Remove(backupFile); err != nil {
		uc.logger.Warning("Не удалось удалить резервную копию %s: %v", backupFile, err)
	}

	uc.logger.Debug("Оригинальный файл заменен: %s", originalFile)
	return nil
}

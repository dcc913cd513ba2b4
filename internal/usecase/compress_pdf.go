package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// CompressOptions настройки сценария сжатия
type CompressOptions struct {
	// Бюджет времени на цикл доводки, 0 - без ограничения
	RefineTimeout   time.Duration
	DefaultTargetKB float64
	ResampleImages  bool
}

// CompressPDFUseCase сценарий сжатия одного PDF файла
type CompressPDFUseCase struct {
	loader     repositories.DocumentLoader
	fileRepo   repositories.FileRepository
	history    repositories.HistoryRepository
	resampler  repositories.ImageResampler
	post       repositories.PostOptimizer
	counter    repositories.PageCounter
	logger     repositories.Logger
	serializer Serializer
	options    CompressOptions
	newLogger  func(repositories.Logger) repositories.Logger
}

// NewCompressPDFUseCase создает новый сценарий сжатия PDF
func NewCompressPDFUseCase(
	loader repositories.DocumentLoader,
	fileRepo repositories.FileRepository,
	logger repositories.Logger,
	options CompressOptions,
) *CompressPDFUseCase {
	return &CompressPDFUseCase{
		loader:   loader,
		fileRepo: fileRepo,
		logger:   loggerOrNop(logger),
		options:  options,
	}
}

// SetHistory подключает журнал сжатий
func (uc *CompressPDFUseCase) SetHistory(history repositories.HistoryRepository) {
	uc.history = history
}

// SetImageResampler подключает пересжатие встроенных изображений
func (uc *CompressPDFUseCase) SetImageResampler(resampler repositories.ImageResampler) {
	uc.resampler = resampler
}

// SetPostOptimizer подключает финальный проход оптимизации
func (uc *CompressPDFUseCase) SetPostOptimizer(post repositories.PostOptimizer) {
	uc.post = post
}

// SetPageCounter включает проверку количества страниц в результате
func (uc *CompressPDFUseCase) SetPageCounter(counter repositories.PageCounter) {
	uc.counter = counter
}

// SetRunLogger задает обертку логгера на время одного запуска
// (например, подавление повторных предупреждений)
func (uc *CompressPDFUseCase) SetRunLogger(wrap func(repositories.Logger) repositories.Logger) {
	uc.newLogger = wrap
}

// Profile возвращает профиль, который будет выбран для файла
func (uc *CompressPDFUseCase) Profile(sizeBytes int64, targetKB float64) entities.CompressionProfile {
	if targetKB <= 0 {
		targetKB = uc.options.DefaultTargetKB
	}
	return entities.Classify(sizeBytes).WithTarget(targetKB)
}

// Execute выполняет сжатие PDF файла. Фатальны только ошибки чтения,
// разбора, сериализации и записи; остальные сбои логируются.
func (uc *CompressPDFUseCase) Execute(ctx context.Context, req entities.CompressionRequest) (*entities.CompressionResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.WithDefaultOutput()

	logger := uc.logger
	if uc.newLogger != nil {
		logger = uc.newLogger(logger)
	}

	// Проверяем существование входного файла
	if !uc.fileRepo.FileExists(req.InputPath) {
		return nil, &entities.LoadError{Path: req.InputPath, Err: entities.ErrFileNotFound}
	}

	data, err := uc.fileRepo.ReadFile(req.InputPath)
	if err != nil {
		return nil, &entities.LoadError{Path: req.InputPath, Err: err}
	}

	profile := uc.Profile(int64(len(data)), req.TargetSizeKB)
	fileName := filepath.Base(req.InputPath)
	logger.Info("%s: %.0f KB, профиль %s (цель %.0f KB, качество %d, масштаб %.1f)",
		fileName, entities.BytesToKB(int64(len(data))), profile.Tier,
		profile.TargetSizeKB, profile.ImageQuality, profile.PageScale)

	doc, err := uc.loader.Load(data)
	if err != nil {
		return nil, &entities.LoadError{Path: req.InputPath, Err: err}
	}

	warnings := 0

	stripper := NewMetadataStripper(logger)
	warnings += len(stripper.Strip(doc, profile.ResetDates))

	scaler := NewPageScaler(profile.MaxWidth, profile.MaxHeight, logger)
	report, err := scaler.Scale(doc, profile.PageScale)
	if err != nil {
		return nil, fmt.Errorf("ошибка масштабирования: %w", err)
	}
	warnings += len(report.Warnings)
	logger.Debug("%s: масштабировано страниц %d, пропущено %d, ошибок %d",
		fileName, len(report.Scaled), len(report.Skipped), len(report.Failed))

	if uc.resampler != nil && uc.options.ResampleImages {
		n, err := doc.TransformImages(uc.resampler.Transform(profile.ImageQuality, profile.PageScale))
		if err != nil {
			warnings++
			logger.Warning("%s: пересжатие изображений: %v", fileName, err)
		}
		logger.Debug("%s: пересжато изображений %d", fileName, n)
	}

	firstPass, err := uc.serializer.Serialize(doc)
	if err != nil {
		return nil, err
	}
	logger.Debug("%s: первый проход %.0f KB", fileName, entities.BytesToKB(int64(len(firstPass))))

	refineCtx := ctx
	if uc.options.RefineTimeout > 0 {
		var cancel context.CancelFunc
		refineCtx, cancel = context.WithTimeout(ctx, uc.options.RefineTimeout)
		defer cancel()
	}

	refiner := NewIterativeRefiner(uc.loader, scaler, logger)
	outcome := refiner.Refine(refineCtx, firstPass, profile.TargetSizeKB)
	if outcome.Abort != nil {
		warnings++
	}

	final := outcome.Data
	engine := uc.loader.Name()
	if uc.post != nil {
		optimized, err := uc.post.Optimize(final, profile)
		switch {
		case err != nil:
			warnings++
			logger.Warning("%s: проход %s пропущен: %v", fileName, uc.post.Name(), err)
		case len(optimized) > 0 && len(optimized) < len(final) && uc.pagesPreserved(optimized, doc.PageCount()):
			final = optimized
			engine += "+" + uc.post.Name()
		}
	}

	if uc.counter != nil && !uc.pagesPreserved(final, doc.PageCount()) {
		warnings++
		logger.Warning("%s: количество страниц результата не совпадает с исходным (%d)", fileName, doc.PageCount())
	}

	if err := uc.fileRepo.WriteFileAtomic(req.OutputPath, final); err != nil {
		return nil, fmt.Errorf("ошибка записи результата %s: %w", req.OutputPath, err)
	}

	result := entities.NewCompressionResult(int64(len(data)), int64(len(final)), time.Since(start))
	result.InputPath = req.InputPath
	result.OutputPath = req.OutputPath
	result.Profile = profile
	result.Iterations = outcome.Iterations
	result.RefineState = outcome.State
	result.TargetReached = result.CompressedSizeKB <= profile.TargetSizeKB
	result.Engine = engine
	result.Warnings = warnings

	if uc.history != nil {
		if err := uc.history.Record(ctx, result); err != nil {
			logger.Warning("Не удалось записать историю для %s: %v", fileName, err)
		}
	}

	if result.TargetReached {
		logger.Success("%s: %.0f KB → %.0f KB (%d%%), итераций %d",
			fileName, result.OriginalSizeKB, result.CompressedSizeKB, result.CompressionRatioPercent, result.Iterations)
	} else {
		logger.Warning("%s: %.0f KB → %.0f KB (%d%%), цель %.0f KB не достигнута",
			fileName, result.OriginalSizeKB, result.CompressedSizeKB, result.CompressionRatioPercent, profile.TargetSizeKB)
	}

	return result, nil
}

// pagesPreserved проверяет результат независимым парсером, если он подключен
func (uc *CompressPDFUseCase) pagesPreserved(data []byte, want int) bool {
	if uc.counter == nil {
		return true
	}
	got, err := uc.counter.CountPages(data)
	return err == nil && got == want
}

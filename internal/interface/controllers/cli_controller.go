package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cheggaaa/pb/v3"

	"pdfshrink/internal/domain/entities"
)

// BatchRunner пакетная обработка директории
type BatchRunner interface {
	SetProgressReporter(reporter func(entities.ProcessingStatus))
	Execute(ctx context.Context, config *entities.Config) (*entities.ProcessingStatus, error)
}

// CLIController контроллер для командной строки
type CLIController struct {
	compressor Compressor
	batch      BatchRunner
	out        io.Writer
}

// NewCLIController создает новый CLI контроллер
func NewCLIController(compressor Compressor, batch BatchRunner, out io.Writer) *CLIController {
	if out == nil {
		out = os.Stdout
	}
	return &CLIController{
		compressor: compressor,
		batch:      batch,
		out:        out,
	}
}

// HandleSingleFile обрабатывает сжатие одного файла
func (c *CLIController) HandleSingleFile(ctx context.Context, inputPath, outputPath string, targetKB float64) error {
	fmt.Fprintf(c.out, "🚀 Сжатие файла: %s\n", inputPath)

	result, err := c.compressor.Execute(ctx, entities.CompressionRequest{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		TargetSizeKB: targetKB,
	})
	if err != nil {
		return fmt.Errorf("ошибка сжатия: %w", err)
	}

	c.showCompressionResult(result)
	return nil
}

// HandleProfile показывает профиль для размера в байтах или для файла
func (c *CLIController) HandleProfile(arg string, targetKB float64) error {
	size, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		info, statErr := os.Stat(arg)
		if statErr != nil {
			return fmt.Errorf("%w: %s", entities.ErrFileNotFound, arg)
		}
		size = info.Size()
	}
	if size < 0 {
		return entities.ErrInvalidRequest
	}

	p := c.compressor.Profile(size, targetKB)
	fmt.Fprintf(c.out, "Размер: %.2f KB\n", entities.BytesToKB(size))
	fmt.Fprintf(c.out, "Профиль: %s\n", p.Tier)
	fmt.Fprintf(c.out, "Цель: %.0f KB\n", p.TargetSizeKB)
	fmt.Fprintf(c.out, "Качество изображений: %d\n", p.ImageQuality)
	fmt.Fprintf(c.out, "Масштаб страниц: %.2f\n", p.PageScale)
	fmt.Fprintf(c.out, "Агрессивный режим: %t\n", p.Aggressive)
	return nil
}

// HandleBatch обрабатывает директорию с индикатором прогресса
func (c *CLIController) HandleBatch(ctx context.Context, config *entities.Config) error {
	var bar *pb.ProgressBar
	if config.Output.ProgressBar {
		bar = pb.New(0).
			SetTemplateString(`{{ bar . " " "━" "━" " " " "}} {{counters .}} {{percent .}} {{rtime .}}`).
			SetWriter(c.out).
			Start()
		c.batch.SetProgressReporter(func(s entities.ProcessingStatus) {
			bar.SetTotal(int64(s.TotalFiles))
			bar.SetCurrent(int64(s.ProcessedFiles))
		})
	}

	status, err := c.batch.Execute(ctx, config)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("ошибка обработки директории: %w", err)
	}

	c.showBatchResult(status)
	if status.FailedFiles > 0 {
		return fmt.Errorf("%w: %d из %d", entities.ErrCompressionFailed, status.FailedFiles, status.TotalFiles)
	}
	return nil
}

// showCompressionResult показывает результат сжатия файла
func (c *CLIController) showCompressionResult(result *entities.CompressionResult) {
	fmt.Fprintln(c.out, "\n📊 Результаты сжатия:")
	fmt.Fprintf(c.out, "Профиль: %s (цель %.0f KB)\n", result.Profile.Tier, result.Profile.TargetSizeKB)
	fmt.Fprintf(c.out, "Исходный размер: %.2f KB\n", result.OriginalSizeKB)
	fmt.Fprintf(c.out, "Сжатый размер: %.2f KB\n", result.CompressedSizeKB)
	fmt.Fprintf(c.out, "Сжатие: %d%%\n", result.CompressionRatioPercent)
	fmt.Fprintf(c.out, "Итераций доводки: %d (%s)\n", result.Iterations, result.RefineStateName())

	switch {
	case !result.IsEffective():
		fmt.Fprintln(c.out, "⚠️ Файл не уменьшился (возможно, уже оптимизирован)")
	case !result.TargetReached:
		fmt.Fprintln(c.out, "⚠️ Целевой размер не достигнут")
	default:
		fmt.Fprintln(c.out, "✅ Сжатие выполнено успешно!")
	}

	fmt.Fprintf(c.out, "\n🎉 Готово! Сжатый файл сохранен как: %s\n", result.OutputPath)
}

// showBatchResult показывает итог пакетной обработки
func (c *CLIController) showBatchResult(status *entities.ProcessingStatus) {
	fmt.Fprintln(c.out, "\n📊 Результаты обработки директории:")
	fmt.Fprintf(c.out, "Всего файлов: %d\n", status.TotalFiles)
	fmt.Fprintf(c.out, "Успешно сжато: %d\n", status.SuccessfulFiles)
	fmt.Fprintf(c.out, "Ошибок: %d\n", status.FailedFiles)
	fmt.Fprintf(c.out, "Цель не достигнута: %d\n", status.MissedTargets)
	fmt.Fprintf(c.out, "Сэкономлено: %.2f MB (%.1f%%)\n",
		entities.BytesToMB(status.TotalSavedSpace), status.AverageCompression)
	fmt.Fprintf(c.out, "Время: %s\n", status.FormatElapsedTime())
}

package usecases

import (
	"fmt"
	"math"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// ScaleReport итог масштабирования документа
type ScaleReport struct {
	Scaled   []int
	Skipped  []int // коэффициент 1, менять нечего
	Failed   []int
	Warnings []error
}

// PageScaler масштабирует страницы документа
type PageScaler struct {
	maxWidth  float64
	maxHeight float64
	logger    repositories.Logger
}

// NewPageScaler создает масштабировщик. Нулевые ограничения отключают
// дополнительное ужатие крупных страниц.
func NewPageScaler(maxWidth, maxHeight float64, logger repositories.Logger) *PageScaler {
	return &PageScaler{
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		logger:    loggerOrNop(logger),
	}
}

// ClampFactor min(1, maxWidth/width, maxHeight/height)
func ClampFactor(width, height, maxWidth, maxHeight float64) float64 {
	f := 1.0
	if maxWidth > 0 && width > maxWidth {
		f = math.Min(f, maxWidth/width)
	}
	if maxHeight > 0 && height > maxHeight {
		f = math.Min(f, maxHeight/height)
	}
	return f
}

// Scale применяет коэффициент factor к каждой странице. Ошибка на одной
// странице не прерывает обработку остальных.
func (s *PageScaler) Scale(doc repositories.Document, factor float64) (ScaleReport, error) {
	var report ScaleReport

	if factor <= 0 || factor > 1 || math.IsNaN(factor) {
		return report, fmt.Errorf("%w: %v", entities.ErrInvalidPageScale, factor)
	}

	for page := 1; page <= doc.PageCount(); page++ {
		if err := s.scalePage(doc, page, factor, &report); err != nil {
			w := &entities.PageOptimizationWarning{Page: page, Stage: "масштабирование", Err: err}
			report.Failed = append(report.Failed, page)
			report.Warnings = append(report.Warnings, w)
			warnOnce(s.logger, fmt.Sprintf("scale:%d", page), "Страница пропущена: %v", w)
		}
	}

	return report, nil
}

func (s *PageScaler) scalePage(doc repositories.Document, page int, factor float64, report *ScaleReport) (err error) {
	// Поврежденные потоки содержимого могут приводить к панике в библиотеке
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника при обработке страницы: %v", r)
		}
	}()

	width, height, err := doc.PageSize(page)
	if err != nil {
		return err
	}

	effective := factor * ClampFactor(width, height, s.maxWidth, s.maxHeight)
	if effective >= 1 {
		report.Skipped = append(report.Skipped, page)
		return nil
	}

	if err := doc.ScalePage(page, effective); err != nil {
		return err
	}

	report.Scaled = append(report.Scaled, page)
	return nil
}

package entities

import (
	"errors"
	"fmt"
)

// Доменные ошибки
var (
	ErrInvalidImageQuality = errors.New("качество изображения должно быть от 0 до 100")
	ErrInvalidPageScale    = errors.New("коэффициент масштабирования должен быть в диапазоне (0, 1]")
	ErrInvalidTargetSize   = errors.New("целевой размер не может быть отрицательным")
	ErrInvalidProcessing   = errors.New("параметры обработки не могут быть отрицательными")
	ErrInvalidRequest      = errors.New("неверный запрос на сжатие")
	ErrUnknownEngine       = errors.New("неизвестный движок сжатия")
	ErrFileNotFound        = errors.New("файл не найден")
	ErrInvalidFileFormat   = errors.New("неверный формат файла")
	ErrCompressionFailed   = errors.New("ошибка сжатия файла")
	ErrDirectoryNotFound   = errors.New("директория не найдена")
	ErrLicenseMissing      = errors.New("UniPDF требует лицензионный ключ")
)

// LoadError входные данные не удалось прочитать или разобрать как PDF.
// Фатальная ошибка, возвращается вызывающему.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ошибка загрузки документа: %v", e.Err)
	}
	return fmt.Sprintf("ошибка загрузки документа %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SerializationError не удалось записать документ в байты. Фатальная ошибка.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("ошибка сериализации документа: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// PageOptimizationWarning проблема на отдельной странице или в метаданных.
// Логируется и пропускается.
type PageOptimizationWarning struct {
	Page  int // 0 - уровень документа
	Stage string
	Err   error
}

func (w *PageOptimizationWarning) Error() string {
	if w.Page == 0 {
		return fmt.Sprintf("%s: %v", w.Stage, w.Err)
	}
	return fmt.Sprintf("%s, страница %d: %v", w.Stage, w.Page, w.Err)
}

func (w *PageOptimizationWarning) Unwrap() error { return w.Err }

// RefinementAbort итерация доводки завершилась ошибкой. Не возвращается
// вызывающему, результатом остаются последние удачные байты.
type RefinementAbort struct {
	Iteration int
	Err       error
}

func (e *RefinementAbort) Error() string {
	return fmt.Sprintf("доводка прервана на итерации %d: %v", e.Iteration, e.Err)
}

func (e *RefinementAbort) Unwrap() error { return e.Err }

// IsFatal сообщает, должна ли ошибка прервать обработку файла
func IsFatal(err error) bool {
	var loadErr *LoadError
	var serErr *SerializationError
	return errors.As(err, &loadErr) || errors.As(err, &serErr)
}

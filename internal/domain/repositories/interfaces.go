package repositories

import (
	"context"

	"pdfshrink/internal/domain/entities"
)

// Поля информационного словаря документа
const (
	InfoTitle        = "Title"
	InfoAuthor       = "Author"
	InfoSubject      = "Subject"
	InfoKeywords     = "Keywords"
	InfoCreator      = "Creator"
	InfoProducer     = "Producer"
	InfoCreationDate = "CreationDate"
	InfoModDate      = "ModDate"
)

// Document загруженный в память PDF документ. Принадлежит одному запуску
// сжатия и изменяется на месте.
type Document interface {
	PageCount() int
	// Info возвращает значение поля информационного словаря
	Info(key string) (string, bool)
	SetInfo(key, value string) error
	// StripXMP удаляет XMP метаданные каталога
	StripXMP() error
	// PageSize возвращает ширину и высоту MediaBox страницы (нумерация с 1)
	PageSize(page int) (width, height float64, err error)
	// ScalePage масштабирует содержимое и рамки страницы
	ScalePage(page int, factor float64) error
	// StripStructure удаляет необязательные структурные ключи страницы
	StripStructure(page int) error
	// TransformImages применяет fn к встроенным JPEG изображениям и
	// возвращает число замененных
	TransformImages(fn ImageTransform) (int, error)
	// Serialize записывает документ с упаковкой объектов в потоки
	Serialize() ([]byte, error)
}

// DocumentLoader разбирает байты PDF в Document
type DocumentLoader interface {
	Load(data []byte) (Document, error)
	Name() string
}

// ImageTransform пересжимает JPEG и возвращает новые байты и размеры.
// nil без ошибки означает, что изображение лучше оставить как есть.
type ImageTransform func(data []byte) (out []byte, width, height int, err error)

// ImageResampler строит преобразование изображений для профиля
type ImageResampler interface {
	Transform(quality int, scale float64) ImageTransform
}

// PostOptimizer необязательный финальный проход оптимизации
type PostOptimizer interface {
	Optimize(data []byte, profile entities.CompressionProfile) ([]byte, error)
	Name() string
}

// FileRepository интерфейс для работы с файловой системой
type FileRepository interface {
	GetFileInfo(path string) (*entities.PDFDocument, error)
	FileExists(path string) bool
	CreateDirectory(path string) error
	ListPDFFiles(directory string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, data []byte) error
}

// HistoryRepository журнал выполненных сжатий
type HistoryRepository interface {
	Record(ctx context.Context, result *entities.CompressionResult) error
	Recent(ctx context.Context, limit int) ([]entities.HistoryRecord, error)
	Close() error
}

// PageCounter независимо от движка считает страницы в готовых байтах PDF
type PageCounter interface {
	CountPages(data []byte) (int, error)
}

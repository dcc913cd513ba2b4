package usecases

import (
	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// EpochDate дата начала эпохи в формате PDF
const EpochDate = "D:19700101000000Z"

var textInfoFields = []string{
	repositories.InfoTitle,
	repositories.InfoSubject,
	repositories.InfoKeywords,
	repositories.InfoAuthor,
	repositories.InfoProducer,
	repositories.InfoCreator,
}

var dateInfoFields = []string{
	repositories.InfoCreationDate,
	repositories.InfoModDate,
}

// MetadataStripper очищает информационный словарь документа.
// Удаление метаданных не бывает фатальным: ошибки возвращаются как предупреждения.
type MetadataStripper struct {
	logger repositories.Logger
}

// NewMetadataStripper создает очиститель метаданных
func NewMetadataStripper(logger repositories.Logger) *MetadataStripper {
	return &MetadataStripper{logger: loggerOrNop(logger)}
}

// Strip очищает текстовые поля и, если нужно, сбрасывает даты в эпоху.
// Сброс действует только на модель в памяти: писатель pdfcpu при записи
// проставляет CreationDate, ModDate и Producer заново.
func (s *MetadataStripper) Strip(doc repositories.Document, resetDates bool) []error {
	var warnings []error

	for _, key := range textInfoFields {
		if err := doc.SetInfo(key, ""); err != nil {
			warnings = append(warnings, s.warn(key, err))
		}
	}

	if resetDates {
		for _, key := range dateInfoFields {
			// Нестандартные объекты дат встречаются часто, пропускаем
			if err := doc.SetInfo(key, EpochDate); err != nil {
				warnings = append(warnings, s.warn(key, err))
			}
		}
	}

	if err := doc.StripXMP(); err != nil {
		warnings = append(warnings, s.warn("XMP", err))
	}

	return warnings
}

func (s *MetadataStripper) warn(field string, err error) error {
	w := &entities.PageOptimizationWarning{Stage: "метаданные " + field, Err: err}
	warnOnce(s.logger, "metadata:"+field, "Пропуск поля метаданных: %v", w)
	return w
}

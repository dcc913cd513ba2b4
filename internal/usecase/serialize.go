package usecases

import (
	"errors"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

var errEmptyOutput = errors.New("пустой результат сериализации")

// Serializer записывает документ в байты
type Serializer struct{}

// Serialize возвращает байты документа. Любой сбой оборачивается в SerializationError.
func (Serializer) Serialize(doc repositories.Document) ([]byte, error) {
	data, err := doc.Serialize()
	if err != nil {
		return nil, &entities.SerializationError{Err: err}
	}
	if len(data) == 0 {
		return nil, &entities.SerializationError{Err: errEmptyOutput}
	}
	return data, nil
}

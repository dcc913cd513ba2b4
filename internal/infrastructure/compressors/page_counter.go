package compressors

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ReaderPageCounter считает страницы независимым от pdfcpu парсером.
// Используется для проверки, что результат читается и страницы не потеряны.
type ReaderPageCounter struct{}

// NewReaderPageCounter создает счетчик страниц
func NewReaderPageCounter() *ReaderPageCounter {
	return &ReaderPageCounter{}
}

// CountPages возвращает количество страниц документа
func (ReaderPageCounter) CountPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("не удалось разобрать документ: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

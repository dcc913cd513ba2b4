package entities

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// EnginePDFCPU движок документа по умолчанию
const EnginePDFCPU = "pdfcpu"

// PDFDocument представляет PDF файл на диске
type PDFDocument struct {
	Path         string
	Size         int64
	ModifiedTime time.Time
	Pages        int
}

// CompressionRequest запрос на сжатие одного файла
type CompressionRequest struct {
	InputPath    string
	OutputPath   string
	TargetSizeKB float64 // 0 - цель берется из профиля
}

// Validate проверяет запрос
func (r CompressionRequest) Validate() error {
	if strings.TrimSpace(r.InputPath) == "" || !validTarget(r.TargetSizeKB) {
		return ErrInvalidRequest
	}
	return nil
}

// WithDefaultOutput заполняет путь результата, если он не указан
func (r CompressionRequest) WithDefaultOutput() CompressionRequest {
	if r.OutputPath == "" {
		ext := filepath.Ext(r.InputPath)
		base := r.InputPath[:len(r.InputPath)-len(ext)]
		if ext == "" {
			ext = ".pdf"
		}
		r.OutputPath = base + "_compressed" + ext
	}
	return r
}

// RefineState состояние цикла доводки
type RefineState int

const (
	RefineEvaluating RefineState = iota
	RefineRefining
	RefineDone
	RefineGaveUp
)

func (s RefineState) String() string {
	switch s {
	case RefineEvaluating:
		return "evaluating"
	case RefineRefining:
		return "refining"
	case RefineDone:
		return "done"
	case RefineGaveUp:
		return "gave_up"
	default:
		return "unknown"
	}
}

// CompressionResult представляет результат сжатия
type CompressionResult struct {
	InputPath               string             `json:"input_path"`
	OutputPath              string             `json:"output_path"`
	OriginalSize            int64              `json:"original_size"`
	CompressedSize          int64              `json:"compressed_size"`
	OriginalSizeKB          float64            `json:"original_size_kb"`
	CompressedSizeKB        float64            `json:"compressed_size_kb"`
	CompressionRatioPercent int                `json:"compression_ratio_percent"`
	SavedSpace              int64              `json:"saved_space"`
	ProcessingTimeSeconds   float64            `json:"processing_time_seconds"`
	Profile                 CompressionProfile `json:"profile"`
	Iterations              int                `json:"iterations"`
	RefineState             RefineState        `json:"-"`
	TargetReached           bool               `json:"target_reached"`
	Engine                  string             `json:"engine"`
	Warnings                int                `json:"warnings"`
}

// NewCompressionResult считает производные поля по размерам в байтах
func NewCompressionResult(originalSize, compressedSize int64, elapsed time.Duration) *CompressionResult {
	r := &CompressionResult{
		OriginalSize:          originalSize,
		CompressedSize:        compressedSize,
		ProcessingTimeSeconds: elapsed.Seconds(),
	}
	r.CalculateCompressionRatio()
	return r
}

// CalculateCompressionRatio вычисляет коэффициент сжатия.
// Значение может быть отрицательным, если файл вырос.
func (cr *CompressionResult) CalculateCompressionRatio() {
	cr.OriginalSizeKB = BytesToKB(cr.OriginalSize)
	cr.CompressedSizeKB = BytesToKB(cr.CompressedSize)
	cr.SavedSpace = cr.OriginalSize - cr.CompressedSize
	cr.CompressionRatioPercent = RatioPercent(cr.OriginalSizeKB, cr.CompressedSizeKB)
}

// IsEffective проверяет, было ли сжатие эффективным
func (cr *CompressionResult) IsEffective() bool {
	return cr.CompressedSize < cr.OriginalSize
}

// RefineStateName имя состояния доводки для вывода
func (cr *CompressionResult) RefineStateName() string {
	return cr.RefineState.String()
}

// RatioPercent round((original-compressed)/original*100), 0 для пустого исходника
func RatioPercent(originalKB, compressedKB float64) int {
	if originalKB <= 0 {
		return 0
	}
	return int(math.Round((originalKB - compressedKB) / originalKB * 100))
}

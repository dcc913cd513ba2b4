package entities

import "time"

// HistoryRecord запись журнала сжатий
type HistoryRecord struct {
	ID                      string    `json:"id"`
	InputPath               string    `json:"input_path"`
	OutputPath              string    `json:"output_path"`
	Tier                    Tier      `json:"tier"`
	OriginalSizeKB          float64   `json:"original_size_kb"`
	CompressedSizeKB        float64   `json:"compressed_size_kb"`
	TargetSizeKB            float64   `json:"target_size_kb"`
	CompressionRatioPercent int       `json:"compression_ratio_percent"`
	Iterations              int       `json:"iterations"`
	RefineState             string    `json:"refine_state"`
	TargetReached           bool      `json:"target_reached"`
	ProcessingTimeSeconds   float64   `json:"processing_time_seconds"`
	CreatedAt               time.Time `json:"created_at"`
}

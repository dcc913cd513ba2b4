package entities_test

import (
	"math"
	"testing"
	"time"

	"pdfshrink/internal/domain/entities"
)

func TestCompressionResult_CalculateCompressionRatio(t *testing.T) {
	tests := []struct {
		name               string
		originalSize       int64
		compressedSize     int64
		expectedRatio      int
		expectedSavedSpace int64
	}{
		{
			name:               "50% compression",
			originalSize:       1024000,
			compressedSize:     512000,
			expectedRatio:      50,
			expectedSavedSpace: 512000,
		},
		{
			name:               "25% compression",
			originalSize:       1000,
			compressedSize:     750,
			expectedRatio:      25,
			expectedSavedSpace: 250,
		},
		{
			name:               "No compression",
			originalSize:       1000,
			compressedSize:     1000,
			expectedRatio:      0,
			expectedSavedSpace: 0,
		},
		{
			name:               "File got bigger",
			originalSize:       1000,
			compressedSize:     1100,
			expectedRatio:      -10,
			expectedSavedSpace: -100,
		},
		{
			name:               "Rounding",
			originalSize:       3000,
			compressedSize:     2000,
			expectedRatio:      33,
			expectedSavedSpace: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &entities.CompressionResult{
				OriginalSize:   tt.originalSize,
				CompressedSize: tt.compressedSize,
			}

			result.CalculateCompressionRatio()

			if result.CompressionRatioPercent != tt.expectedRatio {
				t.Errorf("Expected compression ratio %d, got %d", tt.expectedRatio, result.CompressionRatioPercent)
			}

			if result.SavedSpace != tt.expectedSavedSpace {
				t.Errorf("Expected saved space %d, got %d", tt.expectedSavedSpace, result.SavedSpace)
			}
		})
	}
}

func TestNewCompressionResult(t *testing.T) {
	result := entities.NewCompressionResult(12*1024*1024, 5000*1024, 1500*time.Millisecond)

	if result.OriginalSizeKB != 12288 {
		t.Errorf("Expected original size 12288 KB, got %f", result.OriginalSizeKB)
	}
	if result.CompressedSizeKB != 5000 {
		t.Errorf("Expected compressed size 5000 KB, got %f", result.CompressedSizeKB)
	}
	// round((12288-5000)/12288*100) = round(59.31) = 59
	if result.CompressionRatioPercent != 59 {
		t.Errorf("Expected ratio 59, got %d", result.CompressionRatioPercent)
	}
	if result.ProcessingTimeSeconds != 1.5 {
		t.Errorf("Expected 1.5 seconds, got %f", result.ProcessingTimeSeconds)
	}
}

func TestCompressionResult_IsEffective(t *testing.T) {
	tests := []struct {
		name              string
		result            *entities.CompressionResult
		expectedEffective bool
	}{
		{
			name:              "Effective compression",
			result:            &entities.CompressionResult{OriginalSize: 1000, CompressedSize: 500},
			expectedEffective: true,
		},
		{
			name:              "No compression",
			result:            &entities.CompressionResult{OriginalSize: 1000, CompressedSize: 1000},
			expectedEffective: false,
		},
		{
			name:              "Inflated",
			result:            &entities.CompressionResult{OriginalSize: 1000, CompressedSize: 1200},
			expectedEffective: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.IsEffective(); got != tt.expectedEffective {
				t.Errorf("IsEffective() = %v, want %v", got, tt.expectedEffective)
			}
		})
	}
}

func TestCompressionRequest(t *testing.T) {
	if err := (entities.CompressionRequest{}).Validate(); err == nil {
		t.Error("Expected error for empty input path")
	}
	for _, target := range []float64{-1, math.Inf(1), math.NaN()} {
		if err := (entities.CompressionRequest{InputPath: "a.pdf", TargetSizeKB: target}).Validate(); err == nil {
			t.Errorf("Expected error for target %v", target)
		}
	}

	req := entities.CompressionRequest{InputPath: "/tmp/report.pdf"}.WithDefaultOutput()
	if req.OutputPath != "/tmp/report_compressed.pdf" {
		t.Errorf("Unexpected default output path %q", req.OutputPath)
	}

	req = entities.CompressionRequest{InputPath: "a.pdf", OutputPath: "b.pdf"}.WithDefaultOutput()
	if req.OutputPath != "b.pdf" {
		t.Errorf("Explicit output path was overwritten: %q", req.OutputPath)
	}
}

func TestRatioPercent_ZeroOriginal(t *testing.T) {
	if got := entities.RatioPercent(0, 10); got != 0 {
		t.Errorf("Expected 0 for empty original, got %d", got)
	}
}

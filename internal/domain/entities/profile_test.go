package entities_test

import (
	"fmt"
	"math"
	"testing"

	"pdfshrink/internal/domain/entities"
)

func TestSelectProfile_Buckets(t *testing.T) {
	tests := []struct {
		sizeMB          float64
		expectedTier    entities.Tier
		expectedTarget  float64
		expectedQuality int
		expectedScale   float64
		aggressive      bool
	}{
		{50, entities.TierExtreme, 5500, 30, 0.6, true},
		{10.01, entities.TierExtreme, 5500, 30, 0.6, true},
		{10, entities.TierStrong, 1500, 40, 0.7, true},
		{7.5, entities.TierStrong, 1500, 40, 0.7, true},
		{5, entities.TierStrong, 1500, 40, 0.7, true},
		{4.99, entities.TierRecommended, 700, 50, 0.8, true},
		{1, entities.TierRecommended, 700, 50, 0.8, true},
		{0.5, entities.TierLight, math.Round(0.5 * 1024 * 0.7), 60, 0.9, false},
		{0.99, entities.TierLight, math.Round(0.99 * 1024 * 0.7), 60, 0.9, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2fMB", tt.sizeMB), func(t *testing.T) {
			p := entities.SelectProfile(tt.sizeMB)

			if p.Tier != tt.expectedTier {
				t.Errorf("Expected tier %s, got %s", tt.expectedTier, p.Tier)
			}
			if p.TargetSizeKB != tt.expectedTarget {
				t.Errorf("Expected target %v KB, got %v", tt.expectedTarget, p.TargetSizeKB)
			}
			if p.ImageQuality != tt.expectedQuality {
				t.Errorf("Expected quality %d, got %d", tt.expectedQuality, p.ImageQuality)
			}
			if p.PageScale != tt.expectedScale {
				t.Errorf("Expected scale %v, got %v", tt.expectedScale, p.PageScale)
			}
			if p.Aggressive != tt.aggressive {
				t.Errorf("Expected aggressive %v, got %v", tt.aggressive, p.Aggressive)
			}
			if p.ResetDates != p.Aggressive {
				t.Error("ResetDates must follow Aggressive")
			}
			if err := p.Validate(); err != nil {
				t.Errorf("Profile must be valid: %v", err)
			}
		})
	}
}

func TestSelectProfile_TargetBelowOriginal(t *testing.T) {
	// Для файлов больше 500KB цель всегда меньше исходного размера
	for kb := 501.0; kb < 64*1024; kb *= 1.37 {
		p := entities.SelectProfile(kb / 1024)
		if p.TargetSizeKB >= kb {
			t.Fatalf("Target %v KB is not below original %v KB", p.TargetSizeKB, kb)
		}
	}
}

func TestClassify(t *testing.T) {
	p := entities.Classify(12 * 1024 * 1024)
	if p.Tier != entities.TierExtreme || p.TargetSizeKB != 5500 {
		t.Errorf("Unexpected profile for 12MB: %+v", p)
	}
}

func TestCompressionProfile_WithTarget(t *testing.T) {
	p := entities.SelectProfile(3)
	if got := p.WithTarget(0).TargetSizeKB; got != 700 {
		t.Errorf("Zero target must keep profile value, got %v", got)
	}
	if got := p.WithTarget(250).TargetSizeKB; got != 250 {
		t.Errorf("Explicit target must win, got %v", got)
	}
	if p.TargetSizeKB != 700 {
		t.Error("WithTarget must not mutate the receiver")
	}
}

func TestCompressionProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile entities.CompressionProfile
		wantErr bool
	}{
		{"Valid", entities.CompressionProfile{ImageQuality: 50, PageScale: 0.8}, false},
		{"Quality too high", entities.CompressionProfile{ImageQuality: 105, PageScale: 0.8}, true},
		{"Zero scale", entities.CompressionProfile{ImageQuality: 50, PageScale: 0}, true},
		{"Scale above one", entities.CompressionProfile{ImageQuality: 50, PageScale: 1.2}, true},
		{"Negative target", entities.CompressionProfile{ImageQuality: 50, PageScale: 1, TargetSizeKB: -1}, true},
		{"Infinite target", entities.CompressionProfile{ImageQuality: 50, PageScale: 1, TargetSizeKB: math.Inf(1)}, true},
		{"NaN target", entities.CompressionProfile{ImageQuality: 50, PageScale: 1, TargetSizeKB: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

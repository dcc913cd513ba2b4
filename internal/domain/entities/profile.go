package entities

import "math"

// Tier именованная ступень сжатия
type Tier string

const (
	TierLight       Tier = "light"
	TierRecommended Tier = "recommended"
	TierStrong      Tier = "strong"
	TierExtreme     Tier = "extreme"
)

// Ограничения размеров страницы в пунктах (удвоенный US Letter)
const (
	DefaultMaxPageWidth  = 1224.0
	DefaultMaxPageHeight = 1584.0
)

// BeneficialSizeKB порог, после которого сжатие считается выгодным
const BeneficialSizeKB = 500.0

// CompressionProfile набор параметров сжатия для ступени
type CompressionProfile struct {
	Tier         Tier    `json:"tier" yaml:"tier"`
	TargetSizeKB float64 `json:"target_size_kb" yaml:"target_size_kb"`
	ImageQuality int     `json:"image_quality" yaml:"image_quality"` // 0-100
	PageScale    float64 `json:"page_scale" yaml:"page_scale"`       // (0, 1]
	MaxWidth     float64 `json:"max_width" yaml:"max_width"`
	MaxHeight    float64 `json:"max_height" yaml:"max_height"`
	Aggressive   bool    `json:"aggressive" yaml:"aggressive"`
	// Сбрасывать даты создания/изменения в эпоху
	ResetDates bool `json:"reset_dates" yaml:"reset_dates"`
}

// SelectProfile выбирает профиль по размеру исходного файла в мегабайтах.
// Нижняя граница каждой ступени включительная, 10 MB относится к strong.
func SelectProfile(originalSizeMB float64) CompressionProfile {
	p := CompressionProfile{
		MaxWidth:  DefaultMaxPageWidth,
		MaxHeight: DefaultMaxPageHeight,
	}

	switch {
	case originalSizeMB > 10:
		p.Tier = TierExtreme
		p.TargetSizeKB = 5500
		p.ImageQuality = 30
		p.PageScale = 0.6
		p.Aggressive = true
	case originalSizeMB >= 5:
		p.Tier = TierStrong
		p.TargetSizeKB = 1500
		p.ImageQuality = 40
		p.PageScale = 0.7
		p.Aggressive = true
	case originalSizeMB >= 1:
		p.Tier = TierRecommended
		p.TargetSizeKB = 700
		p.ImageQuality = 50
		p.PageScale = 0.8
		p.Aggressive = true
	default:
		p.Tier = TierLight
		p.TargetSizeKB = math.Round(originalSizeMB * 1024 * 0.7)
		p.ImageQuality = 60
		p.PageScale = 0.9
		p.Aggressive = false
	}

	p.ResetDates = p.Aggressive
	return p
}

// Classify выбирает профиль по размеру файла в байтах
func Classify(sizeBytes int64) CompressionProfile {
	return SelectProfile(BytesToMB(sizeBytes))
}

// WithTarget возвращает копию профиля с явной целью, если она задана
func (p CompressionProfile) WithTarget(targetKB float64) CompressionProfile {
	if targetKB > 0 {
		p.TargetSizeKB = targetKB
	}
	return p
}

// Validate проверяет корректность профиля
func (p CompressionProfile) Validate() error {
	if p.ImageQuality < 0 || p.ImageQuality > 100 {
		return ErrInvalidImageQuality
	}
	if p.PageScale <= 0 || p.PageScale > 1 {
		return ErrInvalidPageScale
	}
	if !validTarget(p.TargetSizeKB) {
		return ErrInvalidTargetSize
	}
	return nil
}

// validTarget цель в KB: конечное неотрицательное число
func validTarget(kb float64) bool {
	return kb >= 0 && !math.IsInf(kb, 0)
}

// BytesToKB переводит байты в килобайты
func BytesToKB(size int64) float64 {
	return float64(size) / 1024
}

// BytesToMB переводит байты в мегабайты
func BytesToMB(size int64) float64 {
	return float64(size) / 1024 / 1024
}

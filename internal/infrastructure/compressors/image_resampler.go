package compressors

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"

	"pdfshrink/internal/domain/repositories"
)

// minResampleSide изображения меньше этого размера только перекодируются
const minResampleSide = 400

// JPEGResampler пересжимает встроенные JPEG изображения документа
type JPEGResampler struct{}

// NewJPEGResampler создает пересжиматель изображений
func NewJPEGResampler() *JPEGResampler {
	return &JPEGResampler{}
}

// Transform возвращает преобразование с качеством quality и масштабом scale.
// Результат отбрасывается, если он не меньше 95% исходного.
func (r *JPEGResampler) Transform(quality int, scale float64) repositories.ImageTransform {
	jpegQuality := clampQuality(quality)
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	return func(data []byte) ([]byte, int, int, error) {
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("не удалось декодировать JPEG: %w", err)
		}

		bounds := img.Bounds()
		width, height := bounds.Dx(), bounds.Dy()

		newWidth := uint(float64(width) * scale)
		newHeight := uint(float64(height) * scale)
		if width < minResampleSide && height < minResampleSide {
			newWidth, newHeight = uint(width), uint(height)
		}

		var finalImg image.Image = img
		if newWidth > 0 && newHeight > 0 && newWidth < uint(width) && newHeight < uint(height) {
			finalImg = resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, 0, 0, fmt.Errorf("не удалось закодировать JPEG: %w", err)
		}

		if buf.Len() >= len(data)*95/100 {
			return nil, 0, 0, nil
		}

		b := finalImg.Bounds()
		return buf.Bytes(), b.Dx(), b.Dy(), nil
	}
}

// clampQuality переводит качество профиля в допустимый диапазон кодировщика
func clampQuality(quality int) int {
	if quality < 20 {
		return 20
	}
	if quality > 95 {
		return 95
	}
	return quality
}

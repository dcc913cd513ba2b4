package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"pdfshrink/internal/domain/entities"
)

// progressColors цвет полосы до указанного процента
var progressColors = []struct {
	below float64
	color string
}{
	{25, "red"},
	{50, "yellow"},
	{75, "blue"},
}

// renderProgress формирует текст панели прогресса
func renderProgress(status entities.ProcessingStatus) string {
	var b strings.Builder

	phase := status.Phase.String()
	if status.Message != "" {
		phase = status.Message
	}
	fmt.Fprintf(&b, "[yellow]⚙️  %s[white]\n", phase)

	if status.CurrentFile != "" {
		fmt.Fprintf(&b, "[yellow]📁[white] %s", truncateName(filepath.Base(status.CurrentFile), MaxFileNameLength, MaxFileNameDisplay))
		if status.CurrentFileSize > 0 {
			fmt.Fprintf(&b, " [dim](%.2f MB)[white]", entities.BytesToMB(status.CurrentFileSize))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s [cyan]%.1f%%[white]\n\n", progressBar(status.Progress, ProgressBarWidth), status.Progress)

	counters := []struct {
		label string
		color string
		value int
		show  bool
	}{
		{"Всего", "cyan", status.TotalFiles, true},
		{"Обработано", "cyan", status.ProcessedFiles, true},
		{"Успешно", "green", status.SuccessfulFiles, true},
		{"Ошибок", "red", status.FailedFiles, status.FailedFiles > 0},
		{"Пропущено", "yellow", status.SkippedFiles, status.SkippedFiles > 0},
		{"Цель не достигнута", "yellow", status.MissedTargets, status.MissedTargets > 0},
	}
	parts := make([]string, 0, len(counters))
	for _, c := range counters {
		if c.show {
			parts = append(parts, fmt.Sprintf("%s: [%s]%d[white]", c.label, c.color, c.value))
		}
	}
	b.WriteString(strings.Join(parts, "  "))
	b.WriteString("\n")

	if status.TotalOriginalSize > 0 {
		fmt.Fprintf(&b, "💾 %.2f MB → %.2f MB, среднее сжатие [green]%.1f%%[white], сэкономлено [green]%.2f MB[white]\n",
			entities.BytesToMB(status.TotalOriginalSize),
			entities.BytesToMB(status.TotalCompressedSize),
			status.AverageCompression,
			entities.BytesToMB(status.TotalSavedSpace))
	}

	if r := status.LastResult; r != nil {
		fmt.Fprintf(&b, "Последний: профиль [cyan]%s[white], %d%%, итераций %d (%s)\n",
			r.Profile.Tier, r.CompressionRatioPercent, r.Iterations, r.RefineStateName())
	}

	fmt.Fprintf(&b, "⏱️  %s", status.FormatElapsedTime())
	if !status.IsComplete && status.EstimatedTime > 0 {
		fmt.Fprintf(&b, ", осталось ~%s", status.FormatEstimatedTime())
	}
	b.WriteString("\n")

	switch {
	case !status.IsComplete:
	case status.Error != nil:
		fmt.Fprintf(&b, "[red]❌ Обработка завершена с ошибкой: %v[white]\n", status.Error)
	default:
		b.WriteString("[green]✅ Обработка успешно завершена[white]\n")
	}

	b.WriteString("[yellow]F1/ESC[white] - меню  [yellow]F4[white] - история")
	return b.String()
}

// truncateName усекает имя по символам, а не байтам
func truncateName(name string, maxLength, truncateAt int) string {
	runes := []rune(name)
	if len(runes) <= maxLength {
		return name
	}
	return string(runes[:truncateAt]) + "..."
}

// progressBar рисует полосу прогресса шириной width
func progressBar(progress float64, width int) string {
	progress = math.Max(0, math.Min(100, progress))
	filled := int(math.Round(progress * float64(width) / 100))

	color := "green"
	for _, pc := range progressColors {
		if progress < pc.below {
			color = pc.color
			break
		}
	}

	return fmt.Sprintf("[%s]%s[gray]%s", color,
		strings.Repeat("█", filled), strings.Repeat("░", width-filled))
}

package entities

import "time"

// ProcessingPhase этап пакетной обработки
type ProcessingPhase int

const (
	PhaseInitializing ProcessingPhase = iota
	PhaseScanning
	PhaseCompressing
	PhaseCompleted
	PhaseFailed
)

var phaseNames = map[ProcessingPhase]string{
	PhaseInitializing: "Инициализация",
	PhaseScanning:     "Поиск PDF файлов",
	PhaseCompressing:  "Сжатие PDF",
	PhaseCompleted:    "Завершено",
	PhaseFailed:       "Ошибка",
}

func (phase ProcessingPhase) String() string {
	if name, ok := phaseNames[phase]; ok {
		return name
	}
	return "Неизвестно"
}

// ProcessingStatus снимок пакетной обработки для прогресс-бара и TUI
type ProcessingStatus struct {
	Phase   ProcessingPhase
	Message string

	CurrentFile     string
	CurrentFileSize int64

	TotalFiles      int
	ProcessedFiles  int
	SuccessfulFiles int
	FailedFiles     int
	SkippedFiles    int
	// Сжаты, но больше своей цели
	MissedTargets int

	// Доля обработанных файлов, 0..100
	Progress float64

	TotalOriginalSize   int64
	TotalCompressedSize int64
	TotalSavedSpace     int64
	AverageCompression  float64

	LastResult *CompressionResult

	StartTime     time.Time
	ElapsedTime   time.Duration
	EstimatedTime time.Duration

	IsComplete bool
	Error      error
}

// NewProcessingStatus начинает отсчет для totalFiles файлов
func NewProcessingStatus(totalFiles int) *ProcessingStatus {
	return &ProcessingStatus{
		Phase:      PhaseInitializing,
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
	}
}

// AddResult учитывает итог одного файла. Ошибка или nil результат считаются сбоем.
func (ps *ProcessingStatus) AddResult(result *CompressionResult, err error) {
	ps.ProcessedFiles++
	ps.LastResult = result

	switch {
	case err != nil || result == nil:
		ps.FailedFiles++
	default:
		ps.SuccessfulFiles++
		if !result.TargetReached {
			ps.MissedTargets++
		}
		ps.TotalOriginalSize += result.OriginalSize
		ps.TotalCompressedSize += result.CompressedSize
		ps.TotalSavedSpace += result.SavedSpace
		if ps.TotalOriginalSize > 0 {
			saved := float64(ps.TotalOriginalSize - ps.TotalCompressedSize)
			ps.AverageCompression = saved / float64(ps.TotalOriginalSize) * 100
		}
	}

	ps.refreshTiming()
}

// refreshTiming пересчитывает процент, прошедшее и оставшееся время
func (ps *ProcessingStatus) refreshTiming() {
	if ps.TotalFiles > 0 {
		ps.Progress = float64(ps.ProcessedFiles) / float64(ps.TotalFiles) * 100
	}
	ps.ElapsedTime = time.Since(ps.StartTime)

	ps.EstimatedTime = 0
	if done := ps.ProcessedFiles; done > 0 && done < ps.TotalFiles {
		perFile := ps.ElapsedTime / time.Duration(done)
		ps.EstimatedTime = perFile * time.Duration(ps.TotalFiles-done)
	}
}

func (ps *ProcessingStatus) SetPhase(phase ProcessingPhase, message string) {
	ps.Phase, ps.Message = phase, message
}

func (ps *ProcessingStatus) SetCurrentFile(filePath string, size int64) {
	ps.CurrentFile, ps.CurrentFileSize = filePath, size
}

// Complete отмечает успешное окончание
func (ps *ProcessingStatus) Complete() {
	ps.finish(PhaseCompleted, nil)
	ps.Progress = 100
}

// Fail отмечает обработку, прерванную ошибкой err
func (ps *ProcessingStatus) Fail(err error) {
	ps.finish(PhaseFailed, err)
}

func (ps *ProcessingStatus) finish(phase ProcessingPhase, err error) {
	ps.IsComplete = true
	ps.Phase = phase
	ps.Error = err
	ps.ElapsedTime = time.Since(ps.StartTime)
	ps.EstimatedTime = 0
}

func (ps *ProcessingStatus) FormatElapsedTime() string {
	return formatDuration(ps.ElapsedTime)
}

func (ps *ProcessingStatus) FormatEstimatedTime() string {
	if ps.EstimatedTime == 0 {
		return "N/A"
	}
	return formatDuration(ps.EstimatedTime)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1 сек"
	}
	return d.Round(time.Second).String()
}

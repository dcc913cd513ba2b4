package usecases

import (
	"context"
	"fmt"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// MaxRefineIterations предел итераций доводки
const MaxRefineIterations = 5

// StructureStripAfter с какой итерации удаляются структурные ключи страниц
const StructureStripAfter = 2

// RefineScaleSequence убывающие коэффициенты для итераций доводки
var RefineScaleSequence = [MaxRefineIterations]float64{0.9, 0.8, 0.7, 0.6, 0.5}

// RefineStep одна выполненная итерация
type RefineStep struct {
	Iteration         int
	Scale             float64
	SizeKB            float64
	StrippedStructure bool
}

// RefineOutcome итог цикла доводки. Data всегда содержит последние
// удачные байты, даже если цель не достигнута.
type RefineOutcome struct {
	State      entities.RefineState
	Iterations int
	Data       []byte
	SizeKB     float64
	Steps      []RefineStep
	Abort      *entities.RefinementAbort
}

// IterativeRefiner повторно загружает и пересохраняет документ с более
// жесткими коэффициентами, пока размер выше цели.
type IterativeRefiner struct {
	loader        repositories.DocumentLoader
	scaler        *PageScaler
	serializer    Serializer
	logger        repositories.Logger
	maxIterations int
}

// NewIterativeRefiner создает цикл доводки
func NewIterativeRefiner(loader repositories.DocumentLoader, scaler *PageScaler, logger repositories.Logger) *IterativeRefiner {
	return &IterativeRefiner{
		loader:        loader,
		scaler:        scaler,
		logger:        loggerOrNop(logger),
		maxIterations: MaxRefineIterations,
	}
}

// ScaleForIteration коэффициент для итерации: RefineScaleSequence[min(i, 4)]
func ScaleForIteration(iteration int) float64 {
	if iteration < 0 {
		iteration = 0
	}
	if iteration > len(RefineScaleSequence)-1 {
		iteration = len(RefineScaleSequence) - 1
	}
	return RefineScaleSequence[iteration]
}

// Refine доводит data до targetKB. Отмена ctx завершает цикл в GaveUp с
// последними удачными байтами и RefinementAbort с ошибкой контекста.
func (r *IterativeRefiner) Refine(ctx context.Context, data []byte, targetKB float64) RefineOutcome {
	outcome := RefineOutcome{
		State: entities.RefineEvaluating,
		Data:  data,
	}

	for {
		outcome.SizeKB = entities.BytesToKB(int64(len(outcome.Data)))

		if outcome.SizeKB <= targetKB {
			outcome.State = entities.RefineDone
			break
		}
		if outcome.Iterations >= r.maxIterations {
			outcome.State = entities.RefineGaveUp
			r.logger.Warning("Цель %.0f KB не достигнута за %d итераций, итог %.0f KB",
				targetKB, outcome.Iterations, outcome.SizeKB)
			break
		}
		if err := ctx.Err(); err != nil {
			outcome.Abort = &entities.RefinementAbort{Iteration: outcome.Iterations, Err: err}
			outcome.State = entities.RefineGaveUp
			r.logger.Warning("Бюджет времени доводки исчерпан после %d итераций: %v", outcome.Iterations, err)
			break
		}

		outcome.State = entities.RefineRefining
		iteration := outcome.Iterations
		scale := ScaleForIteration(iteration)
		strip := iteration > StructureStripAfter

		r.logger.Debug("Доводка: итерация %d, коэффициент %.1f, текущий размер %.0f KB, цель %.0f KB",
			iteration, scale, outcome.SizeKB, targetKB)

		next, err := r.refineOnce(outcome.Data, scale, strip)
		if err != nil {
			outcome.Abort = &entities.RefinementAbort{Iteration: iteration, Err: err}
			outcome.State = entities.RefineGaveUp
			r.logger.Warning("%v, сохраняется результат предыдущего шага", outcome.Abort)
			break
		}

		outcome.Data = next
		outcome.Iterations++
		outcome.Steps = append(outcome.Steps, RefineStep{
			Iteration:         iteration,
			Scale:             scale,
			SizeKB:            entities.BytesToKB(int64(len(next))),
			StrippedStructure: strip,
		})
		outcome.State = entities.RefineEvaluating
	}

	return outcome
}

// refineOnce загружает текущие байты заново: сжатие накопительное
func (r *IterativeRefiner) refineOnce(data []byte, scale float64, stripStructure bool) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("паника: %v", rec)
		}
	}()

	doc, err := r.loader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("повторная загрузка: %w", err)
	}

	if _, err := r.scaler.Scale(doc, scale); err != nil {
		return nil, err
	}

	if stripStructure {
		for page := 1; page <= doc.PageCount(); page++ {
			if err := doc.StripStructure(page); err != nil {
				warnOnce(r.logger, fmt.Sprintf("structure:%d", page),
					"Не удалось удалить структурные ключи страницы %d: %v", page, err)
			}
		}
	}

	return r.serializer.Serialize(doc)
}

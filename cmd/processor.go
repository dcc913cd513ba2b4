package main

import (
	"context"
	"sync"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/presentation/tui"
)

// ApplicationProcessor запускает пакетную обработку из TUI
type ApplicationProcessor struct {
	app        *application
	tuiManager *tui.Manager
	logger     repositories.Logger

	// Graceful shutdown
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running sync.Mutex
}

// NewApplicationProcessor создает новый процессор приложения
func NewApplicationProcessor(
	parent context.Context,
	app *application,
	tuiManager *tui.Manager,
	logger repositories.Logger,
) *ApplicationProcessor {
	ctx, cancel := context.WithCancel(parent)

	return &ApplicationProcessor{
		app:        app,
		tuiManager: tuiManager,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// StartProcessing сжимает все PDF файлы по текущей конфигурации TUI
func (p *ApplicationProcessor) StartProcessing() {
	if !p.running.TryLock() {
		p.logger.Warning("Обработка уже выполняется")
		return
	}
	defer p.running.Unlock()

	p.wg.Add(1)
	defer p.wg.Done()

	cfg := p.tuiManager.GetConfig()
	batch := p.app.newBatch(cfg, p.logger)
	batch.SetProgressReporter(func(s entities.ProcessingStatus) {
		p.tuiManager.SendStatusUpdate(s)
	})

	status, err := batch.Execute(p.ctx, cfg)
	if err != nil {
		p.logger.Error("Ошибка обработки: %v", err)
		return
	}

	if status.FailedFiles == 0 {
		p.logger.Success("Обработка файлов завершена успешно")
	}
}

// Shutdown корректно завершает работу процессора
func (p *ApplicationProcessor) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

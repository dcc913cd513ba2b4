package tui

import (
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// UI Configuration constants
const (
	MaxLogBufferSize   = 1000
	LogFlushInterval   = 50 * time.Millisecond
	ProgressBarWidth   = 40
	MaxFileNameLength  = 60
	MaxFileNameDisplay = 57
	ProgressViewHeight = 12
	HistoryLimit       = 100

	logFlushBatch = 20
)

// screen имя страницы интерфейса
type screen string

const (
	screenMenu       screen = "menu"
	screenConfig     screen = "config"
	screenProcessing screen = "processing"
	screenHistory    screen = "history"
)

// Manager управляет TUI интерфейсом
type Manager struct {
	app   *tview.Application
	pages *tview.Pages

	menu         *tview.List
	hotkeys      map[rune]func()
	configForm   *tview.Form
	licenseField *tview.InputField
	progressView *tview.TextView
	logView      *tview.TextView
	historyTable *tview.Table

	onStartProcessing func()
	history           repositories.HistoryRepository

	configRepo repositories.AppConfigRepository
	configPath string

	// mu защищает config, current и logBuffer
	mu        sync.RWMutex
	config    entities.Config
	current   screen
	logBuffer []string

	processing atomic.Bool

	logs      chan string
	logDone   chan struct{}
	closeOnce sync.Once
}

// NewManager создает менеджер TUI. initial - конфигурация на момент запуска.
func NewManager(configRepo repositories.AppConfigRepository, configPath string, initial *entities.Config) *Manager {
	m := &Manager{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		configRepo: configRepo,
		configPath: configPath,
		current:    screenMenu,
		logBuffer:  make([]string, 0, MaxLogBufferSize),
		logs:       make(chan string, 100),
		logDone:    make(chan struct{}),
	}
	if initial != nil {
		m.config = *initial
	}
	go m.runLogFlusher()
	return m
}

// SetHistory подключает журнал сжатий для экрана истории
func (m *Manager) SetHistory(history repositories.HistoryRepository) {
	m.history = history
}

// SetOnStartProcessing устанавливает callback для начала обработки
func (m *Manager) SetOnStartProcessing(callback func()) {
	m.onStartProcessing = callback
}

// Initialize строит все экраны и горячие клавиши
func (m *Manager) Initialize() {
	m.createMenu()
	m.createConfigScreen()
	m.createProcessingScreen()
	m.createHistoryScreen()

	m.pages.
		AddPage(string(screenMenu), m.menu, true, true).
		AddPage(string(screenConfig), m.configForm, true, false).
		AddPage(string(screenProcessing), m.processingLayout(), true, false).
		AddPage(string(screenHistory), m.historyTable, true, false)

	m.app.SetInputCapture(m.handleKey)
}

// Run запускает TUI и блокируется до выхода
func (m *Manager) Run() error {
	return m.app.SetRoot(m.pages, true).EnableMouse(true).Run()
}

// SendStatusUpdate показывает новое состояние пакетной обработки
func (m *Manager) SendStatusUpdate(status entities.ProcessingStatus) {
	m.processing.Store(!status.IsComplete)
	if m.progressView == nil {
		return
	}

	text := renderProgress(status)
	m.app.QueueUpdateDraw(func() {
		m.progressView.SetText(text)
	})
}

type menuItem struct {
	label  string
	hint   string
	key    rune
	action func()
}

func (m *Manager) createMenu() {
	items := []menuItem{
		{"🚀 Запуск сжатия", "Сжать все PDF файлы исходной директории", '1', m.startProcessing},
		{"⚙️ Конфигурация", "Директории, цель в KB и параметры обработки", '2', func() { m.show(screenConfig) }},
		{"📜 История сжатий", "Последние результаты из журнала", '3', func() { m.show(screenHistory) }},
		{"❌ Выход", "Закрыть приложение", 'q', m.quit},
	}

	m.menu = tview.NewList()
	m.hotkeys = make(map[rune]func(), len(items))
	for _, item := range items {
		m.menu.AddItem(item.label, item.hint, item.key, item.action)
		m.hotkeys[item.key] = item.action
	}

	m.menu.SetBorder(true).
		SetTitle("🔥 PDF Shrink").
		SetTitleAlign(tview.AlignCenter)
	m.menu.SetSelectedBackgroundColor(tcell.ColorDarkBlue).
		SetSelectedTextColor(tcell.ColorWhite).
		SetMainTextColor(tcell.ColorWhite).
		SetSecondaryTextColor(tcell.ColorGray)
}

func (m *Manager) createProcessingScreen() {
	m.progressView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	m.progressView.SetBorder(true).
		SetTitle("📊 Сжатие PDF").
		SetTitleAlign(tview.AlignCenter)

	m.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(MaxLogBufferSize)
	m.logView.SetBorder(true).
		SetTitle("📋 Журнал").
		SetTitleAlign(tview.AlignCenter)
}

func (m *Manager) processingLayout() *tview.Flex {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(m.logView, 0, 1, false).
		AddItem(m.progressView, ProgressViewHeight, 0, false)
}

// handleKey обрабатывает глобальные горячие клавиши
func (m *Manager) handleKey(event *tcell.EventKey) *tcell.EventKey {
	current := m.currentScreen()

	switch event.Key() {
	case tcell.KeyF1:
		m.show(screenMenu)
		return nil
	case tcell.KeyF2:
		m.show(screenConfig)
		return nil
	case tcell.KeyF3:
		if m.processing.Load() {
			m.show(screenProcessing)
		}
		return nil
	case tcell.KeyF4:
		m.show(screenHistory)
		return nil
	case tcell.KeyEscape:
		// На форме ESC отменяет изменения, это делает сама форма
		if current == screenConfig {
			return event
		}
		if current != screenMenu {
			m.show(screenMenu)
			return nil
		}
	case tcell.KeyRune:
		if current != screenMenu {
			break
		}
		if action, ok := m.hotkeys[unicode.ToLower(event.Rune())]; ok {
			action()
			return nil
		}
	}

	return event
}

func (m *Manager) currentScreen() screen {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// show переключает страницу, обновляя ее содержимое
func (m *Manager) show(s screen) {
	switch s {
	case screenConfig:
		m.loadConfig()
		m.refreshConfigForm()
	case screenHistory:
		m.refreshHistory()
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.pages.SwitchToPage(string(s))
}

func (m *Manager) startProcessing() {
	if !m.processing.CompareAndSwap(false, true) {
		m.show(screenProcessing)
		return
	}

	m.saveConfig()
	m.show(screenProcessing)

	if m.onStartProcessing != nil {
		go m.onStartProcessing()
	}
}

func (m *Manager) quit() {
	m.Cleanup()
	m.app.Stop()
}

// Cleanup останавливает обработчик журнала. Повторный вызов безопасен.
func (m *Manager) Cleanup() {
	m.closeOnce.Do(func() {
		close(m.logDone)
	})
}

package tui

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"pdfshrink/internal/domain/entities"
)

// configField поле формы конфигурации. Поле с checked - флажок, иначе ввод текста.
type configField struct {
	label  string
	width  int
	accept func(text string, last rune) bool

	text    func(c *entities.Config) string
	setText func(c *entities.Config, text string)

	checked    func(c *entities.Config) bool
	setChecked func(c *entities.Config, checked bool)
}

const licenseLabel = "Лицензия UniPDF (UNIDOC_LICENSE_API_KEY)"

var configFields = []configField{
	{
		label:   "Исходная директория",
		width:   60,
		text:    func(c *entities.Config) string { return c.Scanner.SourceDirectory },
		setText: func(c *entities.Config, s string) { c.Scanner.SourceDirectory = s },
	},
	{
		label:   "Целевая директория",
		width:   60,
		text:    func(c *entities.Config) string { return c.Scanner.TargetDirectory },
		setText: func(c *entities.Config, s string) { c.Scanner.TargetDirectory = s },
	},
	{
		label:      "Заменить оригинал",
		checked:    func(c *entities.Config) bool { return c.Scanner.ReplaceOriginal },
		setChecked: func(c *entities.Config, v bool) { c.Scanner.ReplaceOriginal = v },
	},
	{
		label:  "Цель, KB (0 - по профилю)",
		width:  10,
		accept: acceptFloat,
		text:   func(c *entities.Config) string { return formatTarget(c.Compression.DefaultTargetKB) },
		setText: func(c *entities.Config, s string) {
			if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 0 {
				c.Compression.DefaultTargetKB = v
			}
		},
	},
	{
		label:      "Пересжимать изображения",
		checked:    func(c *entities.Config) bool { return c.Compression.ResampleImages },
		setChecked: func(c *entities.Config, v bool) { c.Compression.ResampleImages = v },
	},
	{
		label:      "Финальный проход UniPDF",
		checked:    func(c *entities.Config) bool { return c.Compression.PostOptimize },
		setChecked: func(c *entities.Config, v bool) { c.Compression.PostOptimize = v },
	},
	{
		label:   licenseLabel,
		width:   60,
		text:    func(c *entities.Config) string { return c.Compression.UniPDFLicenseKey },
		setText: func(c *entities.Config, s string) { c.Compression.UniPDFLicenseKey = s },
	},
	{
		label:  "Параллельных воркеров",
		width:  4,
		accept: tview.InputFieldInteger,
		text:   func(c *entities.Config) string { return strconv.Itoa(c.Processing.ParallelWorkers) },
		setText: func(c *entities.Config, s string) {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				c.Processing.ParallelWorkers = n
			}
		},
	},
	{
		label:      "Автостарт",
		checked:    func(c *entities.Config) bool { return c.Compression.AutoStart },
		setChecked: func(c *entities.Config, v bool) { c.Compression.AutoStart = v },
	},
}

func acceptFloat(text string, _ rune) bool {
	if text == "" {
		return true
	}
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

func formatTarget(kb float64) string {
	return strconv.FormatFloat(kb, 'f', -1, 64)
}

func (m *Manager) createConfigScreen() {
	c := m.GetConfig()
	m.configForm = tview.NewForm()

	for _, f := range configFields {
		f := f
		if f.checked != nil {
			m.configForm.AddCheckbox(f.label, f.checked(c), func(checked bool) {
				m.editConfig(func(c *entities.Config) { f.setChecked(c, checked) })
				m.highlightLicense()
			})
			continue
		}

		m.configForm.AddInputField(f.label, f.text(c), f.width, f.accept, func(text string) {
			m.editConfig(func(c *entities.Config) { f.setText(c, text) })
		})
		if f.label == licenseLabel {
			m.licenseField, _ = m.configForm.GetFormItem(m.configForm.GetFormItemCount() - 1).(*tview.InputField)
		}
	}

	m.configForm.AddButton("Сохранить", func() {
		m.saveConfig()
		m.show(screenMenu)
		m.menu.SetCurrentItem(1)
	})

	m.highlightLicense()

	m.configForm.SetBorder(true).
		SetTitle("⚙️ Конфигурация (ESC - выйти без сохранения)").
		SetTitleAlign(tview.AlignCenter)

	m.configForm.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyEscape {
			return event
		}
		m.loadConfig()
		m.show(screenMenu)
		return nil
	})
}

func (m *Manager) editConfig(apply func(c *entities.Config)) {
	m.mu.Lock()
	apply(&m.config)
	m.mu.Unlock()
}

// highlightLicense выделяет поле лицензии, когда включен проход UniPDF
func (m *Manager) highlightLicense() {
	if m.licenseField == nil {
		return
	}
	if m.GetConfig().Compression.PostOptimize {
		m.licenseField.SetLabel("🔑 " + licenseLabel + " - ОБЯЗАТЕЛЬНО")
		m.licenseField.SetFieldBackgroundColor(tcell.ColorDarkBlue)
		return
	}
	m.licenseField.SetLabel("Лицензия UniPDF (не требуется)")
	m.licenseField.SetFieldBackgroundColor(tcell.ColorDarkGray)
}

// refreshConfigForm переносит текущую конфигурацию в поля формы
func (m *Manager) refreshConfigForm() {
	if m.configForm == nil {
		return
	}
	c := m.GetConfig()

	for i, f := range configFields {
		switch item := m.configForm.GetFormItem(i).(type) {
		case *tview.Checkbox:
			if f.checked != nil {
				item.SetChecked(f.checked(c))
			}
		case *tview.InputField:
			if f.text != nil {
				item.SetText(f.text(c))
			}
		}
	}

	m.highlightLicense()
}

// loadConfig перечитывает конфигурацию из файла
func (m *Manager) loadConfig() {
	if m.configRepo == nil {
		return
	}
	config, err := m.configRepo.Load(m.configPath)
	if err != nil {
		m.AddLog("error", fmt.Sprintf("Не удалось загрузить конфигурацию: %v", err))
		return
	}
	m.editConfig(func(c *entities.Config) { *c = *config })
}

// saveConfig сохраняет конфигурацию
func (m *Manager) saveConfig() {
	if m.configRepo == nil {
		return
	}
	if err := m.configRepo.Save(m.configPath, m.GetConfig()); err != nil {
		m.AddLog("error", fmt.Sprintf("Не удалось сохранить конфигурацию: %v", err))
	}
}

// GetConfig возвращает копию текущей конфигурации
func (m *Manager) GetConfig() *entities.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config := m.config
	config.Server.AllowedOrigins = append([]string(nil), m.config.Server.AllowedOrigins...)
	return &config
}

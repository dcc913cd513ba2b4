package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
)

var levelColors = map[string]string{
	"error":   "red",
	"warning": "yellow",
	"success": "green",
	"debug":   "gray",
}

func formatLogLine(level, message string) string {
	color, ok := levelColors[strings.ToLower(level)]
	if !ok {
		color = "white"
	}
	return fmt.Sprintf("[%s]%s:[white] %s", color, strings.ToUpper(level), tview.Escape(message))
}

// AddLog ставит запись в очередь журнала. При переполнении запись теряется.
func (m *Manager) AddLog(level, message string) {
	select {
	case m.logs <- formatLogLine(level, message):
	default:
	}
}

// runLogFlusher переносит записи в окно журнала пачками
func (m *Manager) runLogFlusher() {
	ticker := time.NewTicker(LogFlushInterval)
	defer ticker.Stop()

	var pending []string
	flush := func() {
		if len(pending) > 0 {
			m.appendLogs(pending)
			pending = nil
		}
	}

	for {
		select {
		case line := <-m.logs:
			pending = append(pending, line)
			if len(pending) >= logFlushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-m.logDone:
			flush()
			return
		}
	}
}

func (m *Manager) appendLogs(lines []string) {
	m.mu.Lock()
	m.logBuffer = append(m.logBuffer, lines...)
	if over := len(m.logBuffer) - MaxLogBufferSize; over > 0 {
		m.logBuffer = m.logBuffer[over:]
	}
	text := strings.Join(m.logBuffer, "\n")
	m.mu.Unlock()

	if m.logView == nil {
		return
	}
	m.app.QueueUpdateDraw(func() {
		m.logView.SetText(text)
		m.logView.ScrollToEnd()
	})
}

// logLines возвращает копию буфера журнала
func (m *Manager) logLines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.logBuffer...)
}

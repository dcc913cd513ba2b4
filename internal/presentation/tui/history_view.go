package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"pdfshrink/internal/domain/entities"
)

var historyColumns = []string{"Дата", "Файл", "Профиль", "Было, KB", "Стало, KB", "Сжатие", "Итераций", "Цель"}

func (m *Manager) createHistoryScreen() {
	m.historyTable = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	m.historyTable.SetBorder(true).
		SetTitle("📜 История сжатий (F1/ESC - меню)").
		SetTitleAlign(tview.AlignCenter)
}

// refreshHistory перечитывает последние записи журнала сжатий
func (m *Manager) refreshHistory() {
	if m.historyTable == nil {
		return
	}

	var records []entities.HistoryRecord
	if m.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var err error
		records, err = m.history.Recent(ctx, HistoryLimit)
		if err != nil {
			m.AddLog("error", fmt.Sprintf("Не удалось прочитать историю: %v", err))
		}
	}

	fillHistoryTable(m.historyTable, records)
}

func fillHistoryTable(table *tview.Table, records []entities.HistoryRecord) {
	table.Clear()

	for col, title := range historyColumns {
		table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	if len(records) == 0 {
		table.SetCell(1, 0, tview.NewTableCell("Журнал пуст").
			SetTextColor(tcell.ColorGray).
			SetSelectable(false))
		return
	}

	for i, r := range records {
		reached, color := "да", tcell.ColorGreen
		if !r.TargetReached {
			reached, color = "нет", tcell.ColorYellow
		}

		row := []string{
			r.CreatedAt.Local().Format("02.01.2006 15:04"),
			truncateName(filepath.Base(r.InputPath), 40, 37),
			string(r.Tier),
			fmt.Sprintf("%.0f", r.OriginalSizeKB),
			fmt.Sprintf("%.0f", r.CompressedSizeKB),
			fmt.Sprintf("%d%%", r.CompressionRatioPercent),
			strconv.Itoa(r.Iterations),
			reached,
		}
		for col, text := range row {
			cell := tview.NewTableCell(text).SetExpansion(1)
			if col == len(row)-1 {
				cell.SetTextColor(color)
			}
			table.SetCell(i+1, col, cell)
		}
	}
}

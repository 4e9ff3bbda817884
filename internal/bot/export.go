package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"robotrent/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Бронювання"

var exportHeaders = []string{
	"ID", "Дата", "Діб", "Ім'я", "Телефон", "Адреса",
	"Рядки", "Статус", "Записано", "Помилка", "Створено",
}

// exportToExcel сохраняет журнал бронирований за период в xlsx и
// возвращает путь к файлу.
func (b *Bot) exportToExcel(reservations []*models.Reservation, since, until time.Time) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(exportSheet, "A1", fmt.Sprintf("Період: %s - %s",
		since.Format(models.DateLayout), until.Format(models.DateLayout)))
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	_ = f.MergeCell(exportSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(exportSheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(exportSheet, cell, header)
		_ = f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for i, r := range reservations {
		row := i + 3
		values := []interface{}{
			r.ID, r.StartDate, r.Duration, r.Name, r.Phone, r.Address,
			joinRows(r.Rows), r.Status, r.RowsWritten, derefString(r.LastError),
			r.CreatedAt.In(b.config.Location()).Format("02.01.2006 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}

		if r.Status != models.ReservationCommitted {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(exportHeaders), row)
			if style, err := f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
			}); err == nil {
				_ = f.SetCellStyle(exportSheet, first, last, style)
			}
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 8)
	_ = f.SetColWidth(exportSheet, "B", "C", 12)
	_ = f.SetColWidth(exportSheet, "D", "E", 20)
	_ = f.SetColWidth(exportSheet, "F", "F", 40)
	_ = f.SetColWidth(exportSheet, "G", "I", 12)
	_ = f.SetColWidth(exportSheet, "J", "J", 40)
	_ = f.SetColWidth(exportSheet, "K", "K", 18)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_%s_to_%s.xlsx",
		since.Format(models.ISODateLayout), until.Format(models.ISODateLayout))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	b.logger.Info().Str("file_path", filePath).Int("rows", len(reservations)).Msg("Excel file created")
	return filePath, nil
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprint(r)
	}
	return strings.Join(parts, ", ")
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

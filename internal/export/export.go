// Package export writes the booking list as an xlsx workbook for reception.
package export

import (
	"fmt"
	"io"
	"time"

	"citabot/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Reservas"

var headers = []string{"ID", "Fecha", "Hora", "Cliente", "Teléfono", "Servicio", "Estado", "Pagado"}

// FileName is the download name for an export generated at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("reservas_%s.xlsx", t.Format("2006-01-02"))
}

// WriteBookings пишет список бронирований в xlsx
func WriteBookings(w io.Writer, clinic string, bookings []models.Booking, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Заголовок
	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("%s: reservas al %s", clinic, generated.Format("02/01/2006 15:04")))
	_ = f.MergeCell(SheetName, "A1", lastColumn(len(headers))+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)

	// Шапка таблицы
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	pendingStyle, err := rowStyle(f, "#FFEB9C")
	if err != nil {
		return err
	}
	confirmedStyle, err := rowStyle(f, "#C6EFCE")
	if err != nil {
		return err
	}

	// Данные
	for i, b := range bookings {
		row := i + 3
		values := []interface{}{b.ID, b.Date, b.Time, b.Client, b.Phone, b.Service, statusLabel(b), paidLabel(b)}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, first, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}

		style := pendingStyle
		if b.Paid() {
			style = confirmedStyle
		}
		last, _ := excelize.CoordinatesToCellName(len(headers), row)
		_ = f.SetCellStyle(SheetName, first, last, style)
	}

	// Ширина колонок
	_ = f.SetColWidth(SheetName, "A", "A", 6)
	_ = f.SetColWidth(SheetName, "B", "C", 12)
	_ = f.SetColWidth(SheetName, "D", "F", 22)
	_ = f.SetColWidth(SheetName, "G", "H", 12)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func rowStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
		},
	})
	if err != nil {
		return 0, fmt.Errorf("error creating style: %w", err)
	}
	return style, nil
}

func statusLabel(b models.Booking) string {
	if b.Paid() {
		return "Confirmada"
	}
	return "Pendiente"
}

func paidLabel(b models.Booking) string {
	if b.Paid() {
		return "Sí"
	}
	return "No"
}

// lastColumn возвращает букву колонки по номеру (1 = A)
func lastColumn(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}

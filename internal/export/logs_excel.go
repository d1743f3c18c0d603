package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-notify/internal/models"
)

// DeliveryWorkbook — выгрузка журнала доставки для операционного разбора.
type DeliveryWorkbook struct {
	File *excelize.File
}

var header = []string{
	"ID", "Сессия", "Ученик", "Контакт", "Телефон", "Событие",
	"Статус", "Ретраи", "Причина сбоя", "Отправлено", "Доставлено", "Прочитано",
}

func NewDeliveryWorkbook(logs []*models.NotificationLog, loc *time.Location) (*DeliveryWorkbook, error) {
	f := excelize.NewFile()
	const sheet = "Доставка"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for col, h := range header {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	end := colName(len(header)) + "1"
	_ = f.SetCellStyle(sheet, "A1", end, bold)
	_ = f.AutoFilter(sheet, "A1:"+end, nil)

	for i, l := range logs {
		row := i + 2
		cells := []any{
			l.ID, l.SessionID, l.StudentID, l.ContactName, l.Phone, string(l.EventType),
			string(l.Status), l.RetryCount, l.FailedReason,
			fmtTime(l.SentAt, loc), fmtTime(l.DeliveredAt, loc), fmtTime(l.ReadAt, loc),
		}
		for col, v := range cells {
			cell := fmt.Sprintf("%s%d", colName(col+1), row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return &DeliveryWorkbook{File: f}, nil
}

func fmtTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("02.01.2006 15:04:05")
}

// colName — A, B, ..., Z, AA, AB...
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

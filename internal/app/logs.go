package app

import (
	"net/http"
	"time"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/export"
)

// exportLogs — выгрузка журнала доставки в xlsx; по умолчанию
// последние 7 дней.
func (a *sessionAPI) exportLogs(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t.AddDate(0, 0, 1)
		}
	}

	logs, err := db.ListLogsBetween(r.Context(), a.db, from, to)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	wb, err := export.NewDeliveryWorkbook(logs, a.loc)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="delivery.xlsx"`)
	if err := wb.File.Write(w); err != nil {
		// заголовки уже ушли, остаётся только лог
		return
	}
}

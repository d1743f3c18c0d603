package dispatch

import (
	"testing"
	"time"

	"github.com/Spok95/school-notify/internal/models"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Skip("нет базы таймзон:", err)
	}
	return loc
}

func TestSessionVars_Start(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 9, 1, 9, 30, 0, 0, loc)
	sess := &models.ClassSession{
		ClassName:      "5А",
		Subject:        "Математика",
		TeacherName:    "Иванова А.П.",
		PlannedStartAt: start,
		ActualStartAt:  &start,
	}

	vars := SessionVars(sess, models.EventSessionStart, "Лицей №1", loc)

	want := map[string]string{
		"class_name":   "5А",
		"subject":      "Математика",
		"teacher_name": "Иванова А.П.",
		"school_name":  "Лицей №1",
		"session_date": "01.09.2026",
		"start_time":   "09:30",
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%s: ожидали %q, получили %q", k, v, vars[k])
		}
	}
	if _, ok := vars["end_time"]; ok {
		t.Error("end_time не место в переменных session_start")
	}
}

func TestSessionVars_Finish(t *testing.T) {
	loc := mustLoc(t)
	start := time.Date(2026, 9, 1, 9, 30, 0, 0, loc)
	end := start.Add(95 * time.Minute)
	sess := &models.ClassSession{
		Subject:        "Физика",
		PlannedStartAt: start,
		ActualStartAt:  &start,
		ActualEndAt:    &end,
	}

	vars := SessionVars(sess, models.EventSessionFinish, "Школа", loc)
	if vars["end_time"] != "11:05" {
		t.Errorf("end_time: получили %q", vars["end_time"])
	}
	if vars["total_duration"] != "95 мин" {
		t.Errorf("total_duration: получили %q", vars["total_duration"])
	}
}

func TestSessionVars_Break(t *testing.T) {
	loc := mustLoc(t)
	br := time.Date(2026, 9, 1, 10, 15, 0, 0, loc)
	sess := &models.ClassSession{
		PlannedStartAt: br,
		ActualBreakAt:  &br,
		BreakDuration:  15 * time.Minute,
	}
	vars := SessionVars(sess, models.EventSessionBreak, "Школа", loc)
	if vars["break_time"] != "10:15" || vars["break_duration"] != "15" {
		t.Errorf("получили break_time=%q break_duration=%q", vars["break_time"], vars["break_duration"])
	}
}

func TestSessionVars_NilTimestamps(t *testing.T) {
	loc := mustLoc(t)
	sess := &models.ClassSession{PlannedStartAt: time.Now()}
	vars := SessionVars(sess, models.EventSessionFinish, "Школа", loc)
	if vars["end_time"] != "" {
		t.Errorf("без факта окончания ожидали пустое end_time, получили %q", vars["end_time"])
	}
	if _, ok := vars["total_duration"]; ok {
		t.Error("total_duration без обеих отметок не считается")
	}
}

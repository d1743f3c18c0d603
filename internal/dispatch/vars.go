package dispatch

import (
	"fmt"
	"time"

	"github.com/Spok95/school-notify/internal/models"
)

func fmtClock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04")
}

// SessionVars — переменные шаблона, выводимые из сессии. Контактные
// (parent_name, student_name) добавляются при фактической отправке.
func SessionVars(sess *models.ClassSession, event models.TriggerEvent, schoolName string, loc *time.Location) map[string]string {
	vars := map[string]string{
		"class_name":   sess.ClassName,
		"subject":      sess.Subject,
		"teacher_name": sess.TeacherName,
		"school_name":  schoolName,
		"session_date": sess.PlannedStartAt.In(loc).Format("02.01.2006"),
	}
	switch event {
	case models.EventSessionStart:
		vars["start_time"] = fmtClock(sess.ActualStartAt, loc)
	case models.EventSessionBreak:
		vars["break_time"] = fmtClock(sess.ActualBreakAt, loc)
		vars["break_duration"] = fmt.Sprintf("%d", int(sess.BreakDuration.Minutes()))
	case models.EventSessionResume:
		vars["resume_time"] = fmtClock(sess.ActualResumeAt, loc)
	case models.EventSessionFinish:
		vars["end_time"] = fmtClock(sess.ActualEndAt, loc)
		if sess.ActualStartAt != nil && sess.ActualEndAt != nil {
			total := sess.ActualEndAt.Sub(*sess.ActualStartAt).Round(time.Minute)
			vars["total_duration"] = fmt.Sprintf("%d мин", int(total.Minutes()))
		}
	}
	return vars
}

package template

import "github.com/Spok95/school-notify/internal/models"

// Словарь плейсхолдеров фиксирован по типу события. Общие поля доступны
// везде, событийные — только у своего события.
var commonVars = []string{
	"student_name", "parent_name", "class_name", "school_name",
	"session_date", "subject", "teacher_name",
}

var eventVars = map[models.TriggerEvent][]string{
	models.EventSessionStart:  {"start_time"},
	models.EventSessionBreak:  {"break_time", "break_duration"},
	models.EventSessionResume: {"resume_time"},
	models.EventSessionFinish: {"end_time", "total_duration"},
	models.EventManual:        {},
	models.EventScheduled:     {},
}

// Vocabulary — множество допустимых переменных для события.
// Неизвестное событие — только общие поля.
func Vocabulary(event models.TriggerEvent) map[string]bool {
	out := make(map[string]bool, len(commonVars)+4)
	for _, v := range commonVars {
		out[v] = true
	}
	for _, v := range eventVars[event] {
		out[v] = true
	}
	return out
}

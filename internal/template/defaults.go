package template

import "github.com/Spok95/school-notify/internal/models"

// Дефолтные тела на случай, когда шаблон не настроен: диспетчер никогда
// не должен встать из-за пустой конфигурации.
var defaultBodies = map[string]map[models.TriggerEvent]string{
	"ru": {
		models.EventSessionStart:  "Здравствуйте, {parent_name}! {student_name}: занятие «{subject}» началось в {start_time}.",
		models.EventSessionBreak:  "{student_name}: перерыв на занятии «{subject}» с {break_time} ({break_duration} мин).",
		models.EventSessionResume: "{student_name}: занятие «{subject}» продолжилось в {resume_time}.",
		models.EventSessionFinish: "{student_name}: занятие «{subject}» закончилось в {end_time}. Длительность: {total_duration}.",
		models.EventManual:        "Сообщение от {school_name} для {parent_name}.",
		models.EventScheduled:     "Напоминание от {school_name}: {session_date}, {class_name}.",
	},
	"en": {
		models.EventSessionStart:  "Hi {parent_name}, {student_name} started {subject} at {start_time}.",
		models.EventSessionBreak:  "{student_name}: break in {subject} since {break_time} ({break_duration} min).",
		models.EventSessionResume: "{student_name}: {subject} resumed at {resume_time}.",
		models.EventSessionFinish: "{student_name}: {subject} finished at {end_time}. Duration: {total_duration}.",
		models.EventManual:        "Message from {school_name} for {parent_name}.",
		models.EventScheduled:     "Reminder from {school_name}: {session_date}, {class_name}.",
	},
}

// DefaultBody — тело по умолчанию; незнакомый язык откатывается на ru.
func DefaultBody(event models.TriggerEvent, lang string) (string, bool) {
	byEvent, ok := defaultBodies[lang]
	if !ok {
		byEvent = defaultBodies["ru"]
	}
	body, ok := byEvent[event]
	return body, ok
}

package models

import "time"

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionStarted   SessionStatus = "started"
	SessionBreak     SessionStatus = "break"
	SessionResumed   SessionStatus = "resumed"
	SessionFinished  SessionStatus = "finished"
	SessionCancelled SessionStatus = "cancelled"
)

// TriggerEvent — событие перехода, на которое реагируют воркфлоу.
type TriggerEvent string

const (
	EventSessionStart  TriggerEvent = "session_start"
	EventSessionBreak  TriggerEvent = "session_break"
	EventSessionResume TriggerEvent = "session_resume"
	EventSessionFinish TriggerEvent = "session_finish"
	EventManual        TriggerEvent = "manual"
	EventScheduled     TriggerEvent = "scheduled"
)

// ClassSession — одно занятие с собственным жизненным циклом.
// Статус меняется только через session.Machine, напрямую — никогда.
type ClassSession struct {
	ID               int64
	ClassID          int64
	ClassName        string
	Subject          string
	TeacherName      string
	PlannedStartAt   time.Time
	PlannedEndAt     time.Time
	BreakDuration    time.Duration
	Status           SessionStatus
	ActualStartAt    *time.Time
	ActualBreakAt    *time.Time
	ActualResumeAt   *time.Time
	ActualEndAt      *time.Time
	StudentsTotal    int
	StudentsPresent  int
	NotificationsSent int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// Terminal — из финального статуса переходов нет.
func (s SessionStatus) Terminal() bool {
	return s == SessionFinished || s == SessionCancelled
}

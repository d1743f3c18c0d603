package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type WorkflowType string

const (
	WorkflowSessionNotification WorkflowType = "session_notification"
	WorkflowAttendanceAlert     WorkflowType = "attendance_alert"
	WorkflowCustomMessage       WorkflowType = "custom_message"
	WorkflowScheduledReminder   WorkflowType = "scheduled_reminder"
)

type ConditionOp string

const (
	OpEquals      ConditionOp = "equals"
	OpNotEquals   ConditionOp = "not_equals"
	OpGreaterThan ConditionOp = "greater_than"
	OpLessThan    ConditionOp = "less_than"
	OpContains    ConditionOp = "contains"
	OpInArray     ConditionOp = "in_array"
)

// Condition — тройка (поле, оператор, значение). Данные, не код:
// интерпретируется движком, правится без перекомпиляции.
type Condition struct {
	Field string      `json:"field" validate:"required"`
	Op    ConditionOp `json:"op" validate:"required,oneof=equals not_equals greater_than less_than contains in_array"`
	Value any         `json:"value"`
}

type ActionKind string

const (
	ActionSendNotification ActionKind = "send_notification"
	ActionLogEvent         ActionKind = "log_event"
	ActionUpdateSession    ActionKind = "update_session"
	ActionSendEmail        ActionKind = "send_email"
)

// Action — закрытое размеченное объединение: ровно одно из полей
// заполнено в соответствии с Kind. Декодируется при загрузке воркфлоу,
// чтобы интерпретатор матчился исчерпывающе, а не по ключам словаря.
type Action struct {
	Kind             ActionKind              `json:"kind"`
	SendNotification *SendNotificationAction `json:"send_notification,omitempty"`
	LogEvent         *LogEventAction         `json:"log_event,omitempty"`
	UpdateSession    *UpdateSessionAction    `json:"update_session,omitempty"`
	SendEmail        *SendEmailAction        `json:"send_email,omitempty"`
}

type SendNotificationAction struct {
	EventType TriggerEvent `json:"event_type"`
}

type LogEventAction struct {
	Message string `json:"message"`
}

// UpdateSessionAction — точечный патч служебных полей сессии.
// Статус через него менять нельзя, только через state machine.
type UpdateSessionAction struct {
	Fields map[string]any `json:"fields"`
}

type SendEmailAction struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DecodeActions разбирает JSONB-массив действий и проверяет,
// что payload соответствует своему kind.
func DecodeActions(raw []byte) ([]Action, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var acts []Action
	if err := json.Unmarshal(raw, &acts); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	for i, a := range acts {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
	}
	return acts, nil
}

// Validate — payload действия обязан соответствовать своему Kind.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionSendNotification:
		if a.SendNotification == nil {
			return fmt.Errorf("%s: payload отсутствует", a.Kind)
		}
	case ActionLogEvent:
		if a.LogEvent == nil {
			return fmt.Errorf("%s: payload отсутствует", a.Kind)
		}
	case ActionUpdateSession:
		if a.UpdateSession == nil {
			return fmt.Errorf("%s: payload отсутствует", a.Kind)
		}
		if _, ok := a.UpdateSession.Fields["status"]; ok {
			return fmt.Errorf("%s: менять status запрещено", a.Kind)
		}
	case ActionSendEmail:
		if a.SendEmail == nil {
			return fmt.Errorf("%s: payload отсутствует", a.Kind)
		}
	default:
		return fmt.Errorf("неизвестный kind %q", a.Kind)
	}
	return nil
}

type Workflow struct {
	ID           int64
	Name         string       `validate:"required,min=3"`
	Type         WorkflowType `validate:"required,oneof=session_notification attendance_alert custom_message scheduled_reminder"`
	Trigger      TriggerEvent `validate:"required"`
	Conditions   []Condition  `validate:"dive"`
	Actions      []Action
	Active       bool
	Priority     int // меньше — раньше
	Schedule     string // cron-выражение для Trigger == scheduled
	LastExecuted *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

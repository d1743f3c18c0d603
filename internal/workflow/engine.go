package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/dispatch"
	"github.com/Spok95/school-notify/internal/email"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/observability"
)

// Engine интерпретирует воркфлоу: по триггеру загружает активные правила
// и гонит их по приоритету. Падение одного воркфлоу соседей не трогает.
type Engine struct {
	db         *sql.DB
	dispatcher *dispatch.Dispatcher
	mail       email.Sender
	log        *zap.Logger
	validate   *validator.Validate
}

func NewEngine(database *sql.DB, d *dispatch.Dispatcher, mail email.Sender, log *zap.Logger) *Engine {
	return &Engine{
		db:         database,
		dispatcher: d,
		mail:       mail,
		log:        log,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RunResult — итог одного воркфлоу: успех, если сработало хотя бы
// одно действие.
type RunResult struct {
	WorkflowID int64
	Skipped    bool
	Succeeded  int
	Failed     int
}

func (r RunResult) OK() bool { return r.Succeeded > 0 }

// HandleTrigger — подписчик state machine (session.TriggerFunc).
// Вызывается после коммита перехода.
func (e *Engine) HandleTrigger(ctx context.Context, event models.TriggerEvent, sess *models.ClassSession) {
	_, err := e.Run(ctx, event, sess, nil)
	if err != nil {
		observability.CaptureErr(err)
		e.log.Error("обработка триггера", zap.String("event", string(event)), zap.Error(err))
	}
}

// Run — все активные воркфлоу триггера, по возрастанию priority.
func (e *Engine) Run(ctx context.Context, event models.TriggerEvent, sess *models.ClassSession, extra map[string]any) ([]RunResult, error) {
	wfs, err := db.ListActiveByTrigger(ctx, e.db, event)
	if err != nil {
		return nil, err
	}
	results := make([]RunResult, 0, len(wfs))
	for _, wf := range wfs {
		results = append(results, e.runOne(ctx, wf, event, sess, extra))
	}
	return results, nil
}

// runOne — один воркфлоу целиком, с изоляцией паник.
func (e *Engine) runOne(ctx context.Context, wf *models.Workflow, event models.TriggerEvent, sess *models.ClassSession, extra map[string]any) (res RunResult) {
	res.WorkflowID = wf.ID
	defer func() {
		if r := recover(); r != nil {
			observability.CaptureErr(fmt.Errorf("panic в воркфлоу %d: %v", wf.ID, r))
			res.Failed++
		}
		// факт запуска фиксируем независимо от исхода
		if err := db.TouchWorkflowExecuted(ctx, e.db, wf.ID); err != nil {
			observability.CaptureErr(err)
		}
	}()

	condCtx := buildContext(sess, extra)
	ok, err := EvalAll(wf.Conditions, condCtx)
	if err != nil {
		observability.CaptureErr(fmt.Errorf("воркфлоу %d: условия: %w", wf.ID, err))
		res.Skipped = true
		return res
	}
	if !ok {
		res.Skipped = true
		return res
	}

	for i, a := range wf.Actions {
		// сбой действия не останавливает следующие
		if err := e.execute(ctx, a, event, sess); err != nil {
			observability.CaptureErr(fmt.Errorf("воркфлоу %d, действие %d (%s): %w", wf.ID, i, a.Kind, err))
			e.log.Warn("действие воркфлоу упало",
				zap.Int64("workflow_id", wf.ID),
				zap.Int("action", i),
				zap.String("kind", string(a.Kind)),
				zap.Error(err))
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	return res
}

// buildContext — контекст для условий: поля сессии плюс переданное извне.
func buildContext(sess *models.ClassSession, extra map[string]any) map[string]any {
	ctx := make(map[string]any, 12+len(extra))
	if sess != nil {
		ctx["status"] = string(sess.Status)
		ctx["class_id"] = sess.ClassID
		ctx["class_name"] = sess.ClassName
		ctx["subject"] = sess.Subject
		ctx["teacher_name"] = sess.TeacherName
		ctx["students_total"] = sess.StudentsTotal
		ctx["students_present"] = sess.StudentsPresent
		ctx["notifications_sent"] = sess.NotificationsSent
	}
	for k, v := range extra {
		ctx[k] = v
	}
	return ctx
}

// execute — исчерпывающий матч по закрытому объединению действий.
func (e *Engine) execute(ctx context.Context, a models.Action, event models.TriggerEvent, sess *models.ClassSession) error {
	switch a.Kind {
	case models.ActionSendNotification:
		if sess == nil {
			return fmt.Errorf("send_notification без сессии")
		}
		ev := a.SendNotification.EventType
		if ev == "" {
			ev = event
		}
		_, err := e.dispatcher.DispatchForSession(ctx, sess, ev, nil)
		return err

	case models.ActionLogEvent:
		if sess == nil {
			return fmt.Errorf("log_event без сессии")
		}
		// запись в журнал без отправки; student/contact нулевые, чтобы
		// не пересекаться с идемпотентностью реальных отправок
		_, err := db.InsertLog(ctx, e.db, models.NotificationLog{
			SessionID: sess.ID,
			EventType: event,
			Message:   a.LogEvent.Message,
		})
		return err

	case models.ActionUpdateSession:
		if sess == nil {
			return fmt.Errorf("update_session без сессии")
		}
		return db.PatchSessionFields(ctx, e.db, sess.ID, a.UpdateSession.Fields)

	case models.ActionSendEmail:
		return e.mail.Send(ctx, a.SendEmail.To, a.SendEmail.Subject, a.SendEmail.Body)
	}
	return fmt.Errorf("неизвестное действие %q", a.Kind)
}

// Save — сохранение воркфлоу с проверкой структуры и действий.
func (e *Engine) Save(ctx context.Context, wf models.Workflow) (int64, error) {
	if err := e.validate.Struct(wf); err != nil {
		return 0, &models.ValidationError{Field: "workflow", Reason: err.Error()}
	}
	for i, a := range wf.Actions {
		if err := a.Validate(); err != nil {
			return 0, &models.ValidationError{
				Field:  fmt.Sprintf("actions[%d]", i),
				Reason: err.Error(),
			}
		}
	}
	return db.SaveWorkflow(ctx, e.db, wf)
}

// окно, в котором scheduled-напоминания видят будущие занятия
const upcomingWindow = 24 * time.Hour

// RunScheduled — запуск scheduled-воркфлоу по cron: прогоняем его по
// всем занятиям, начинающимся в ближайшие сутки.
func (e *Engine) RunScheduled(ctx context.Context, workflowID int64) {
	wf, err := db.GetWorkflow(ctx, e.db, workflowID)
	if err != nil {
		observability.CaptureErr(err)
		return
	}
	sessions, err := db.ListUpcomingScheduled(ctx, e.db, upcomingWindow)
	if err != nil {
		observability.CaptureErr(err)
		return
	}
	for _, sess := range sessions {
		e.runOne(ctx, wf, models.EventScheduled, sess, nil)
	}
}

//go:build testutil
// +build testutil

package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/contacts"
	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/dispatch"
	"github.com/Spok95/school-notify/internal/email"
	"github.com/Spok95/school-notify/internal/gateway"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/template"
	"github.com/Spok95/school-notify/internal/testutil/testdb"
	"github.com/Spok95/school-notify/internal/workflow"
)

// nullGateway — транспорт-заглушка: всё доставлено, никуда не ушло.
type nullGateway struct{}

func (nullGateway) Send(ctx context.Context, destination, body string) (*gateway.SendResult, error) {
	return &gateway.SendResult{MessageID: "null"}, nil
}

func (nullGateway) TestConnection(ctx context.Context) (*gateway.DeviceInfo, error) {
	return &gateway.DeviceInfo{}, nil
}

func (nullGateway) CheckDeviceStatus(ctx context.Context) (models.ConnState, *int, error) {
	return models.ConnConnected, nil, nil
}

func (nullGateway) Address(c *models.ParentContact) (string, bool) {
	return c.Destination(), true
}

func newEngine(t *testing.T, h *testdb.DBHandle) *workflow.Engine {
	t.Helper()
	log := zap.NewNop()
	d := dispatch.New(h.DB, nullGateway{}, template.NewService(h.DB, log),
		contacts.NewDirectory(h.DB, log), log, dispatch.Config{DeviceID: "test"})
	return workflow.NewEngine(h.DB, d, email.NewConsole(log), log)
}

func seedSession(t *testing.T, h *testdb.DBHandle) *models.ClassSession {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	id, err := db.CreateSession(ctx, h.DB, models.ClassSession{
		ClassID:        1,
		ClassName:      "5А",
		Subject:        "Математика",
		TeacherName:    "Иванова А.П.",
		PlannedStartAt: now,
		PlannedEndAt:   now.Add(45 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err := db.GetSession(ctx, h.DB, id)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// Триггер manual не занят сидовыми воркфлоу — в тестах видно только своё.
func TestEngine_Run(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	e := newEngine(t, h)
	sess := seedSession(t, h)

	wfID, err := e.Save(ctx, models.Workflow{
		Name:    "журнал и патч",
		Type:    models.WorkflowCustomMessage,
		Trigger: models.EventManual,
		Active:  true,
		Actions: []models.Action{
			{Kind: models.ActionLogEvent, LogEvent: &models.LogEventAction{Message: "ручной прогон"}},
			{Kind: models.ActionUpdateSession, UpdateSession: &models.UpdateSessionAction{
				Fields: map[string]any{"students_present": 12},
			}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := e.Run(ctx, models.EventManual, sess, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("ожидали 1 воркфлоу, получили %d", len(results))
	}
	res := results[0]
	if res.Skipped || res.Succeeded != 2 || res.Failed != 0 {
		t.Fatalf("итог прогона: %+v", res)
	}

	s, err := db.GetSession(ctx, h.DB, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if s.StudentsPresent != 12 {
		t.Fatalf("update_session не применился: present=%d", s.StudentsPresent)
	}

	wf, err := db.GetWorkflow(ctx, h.DB, wfID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.LastExecuted == nil {
		t.Fatal("last_executed_at должен быть проставлен")
	}
}

func TestEngine_ConditionsSkip(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	e := newEngine(t, h)
	sess := seedSession(t, h)

	wfID, err := e.Save(ctx, models.Workflow{
		Name:    "только для начатых",
		Type:    models.WorkflowCustomMessage,
		Trigger: models.EventManual,
		Active:  true,
		Conditions: []models.Condition{
			{Field: "status", Op: models.OpEquals, Value: "started"},
		},
		Actions: []models.Action{
			{Kind: models.ActionLogEvent, LogEvent: &models.LogEventAction{Message: "не должно выполниться"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := e.Run(ctx, models.EventManual, sess, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Skipped {
		t.Fatal("условие не совпало — воркфлоу должен быть пропущен")
	}

	// факт запуска фиксируется и у пропущенных
	wf, err := db.GetWorkflow(ctx, h.DB, wfID)
	if err != nil {
		t.Fatal(err)
	}
	if wf.LastExecuted == nil {
		t.Fatal("last_executed_at должен быть проставлен и при пропуске")
	}
}

// Сбой одного действия не останавливает следующие.
func TestEngine_ActionIsolation(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	e := newEngine(t, h)
	sess := seedSession(t, h)

	// planned_start_at не входит в разрешённые для патча поля —
	// действие упадёт в рантайме
	if _, err := e.Save(ctx, models.Workflow{
		Name:    "сбойное действие",
		Type:    models.WorkflowCustomMessage,
		Trigger: models.EventManual,
		Active:  true,
		Actions: []models.Action{
			{Kind: models.ActionUpdateSession, UpdateSession: &models.UpdateSessionAction{
				Fields: map[string]any{"planned_start_at": "2030-01-01"},
			}},
			{Kind: models.ActionLogEvent, LogEvent: &models.LogEventAction{Message: "после сбоя"}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	results, err := e.Run(ctx, models.EventManual, sess, nil)
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Failed != 1 || res.Succeeded != 1 {
		t.Fatalf("ожидали 1 сбой и 1 успех, получили %+v", res)
	}
}

func TestEngine_SaveRejects(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	e := newEngine(t, h)

	var ve *models.ValidationError

	// менять статус через update_session запрещено
	_, err = e.Save(ctx, models.Workflow{
		Name:    "попытка смены статуса",
		Type:    models.WorkflowCustomMessage,
		Trigger: models.EventManual,
		Actions: []models.Action{
			{Kind: models.ActionUpdateSession, UpdateSession: &models.UpdateSessionAction{
				Fields: map[string]any{"status": "finished"},
			}},
		},
	})
	if !errors.As(err, &ve) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}

	// слишком короткое имя
	_, err = e.Save(ctx, models.Workflow{
		Name:    "ab",
		Type:    models.WorkflowCustomMessage,
		Trigger: models.EventManual,
	})
	if !errors.As(err, &ve) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
}

//go:build testutil
// +build testutil

package template_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/template"
	"github.com/Spok95/school-notify/internal/testutil/testdb"
)

func TestService_ForEvent_MaterializesDefault(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	svc := template.NewService(h.DB, zap.NewNop())

	got, err := svc.ForEvent(ctx, models.EventSessionStart, "ru")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == 0 || got.Body == "" {
		t.Fatalf("дефолт не материализовался: %+v", got)
	}

	// второй вызов отдаёт ту же строку, а не плодит новые
	again, err := svc.ForEvent(ctx, models.EventSessionStart, "ru")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != got.ID {
		t.Fatalf("ожидали ту же строку %d, получили %d", got.ID, again.ID)
	}
}

func TestService_Save(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	svc := template.NewService(h.DB, zap.NewNop())

	t.Run("valid", func(t *testing.T) {
		id, err := svc.Save(ctx, models.NotificationTemplate{
			Name:      "кастомный старт",
			EventType: models.EventSessionStart,
			Body:      "{student_name} начал {subject} в {start_time}",
			Language:  "ru",
			Active:    true,
		})
		if err != nil {
			t.Fatal(err)
		}
		if id == 0 {
			t.Fatal("нулевой id")
		}
		// активный кастомный шаблон вытесняет дефолт
		got, err := svc.ForEvent(ctx, models.EventSessionStart, "ru")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != id {
			t.Fatalf("ожидали кастомный шаблон %d, получили %d", id, got.ID)
		}
	})

	t.Run("unknown_variable_rejected", func(t *testing.T) {
		_, err := svc.Save(ctx, models.NotificationTemplate{
			Name:      "кривой",
			EventType: models.EventSessionStart,
			Body:      "переменной {xyz} не существует",
			Language:  "ru",
			Active:    true,
		})
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("ожидали ValidationError, получили %v", err)
		}
		if len(ve.Unknown) != 1 || ve.Unknown[0] != "xyz" {
			t.Fatalf("Unknown = %v", ve.Unknown)
		}
	})
}

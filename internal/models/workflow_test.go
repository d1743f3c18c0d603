package models_test

import (
	"errors"
	"testing"

	"github.com/Spok95/school-notify/internal/models"
)

func TestDecodeActions(t *testing.T) {
	raw := []byte(`[
		{"kind":"send_notification","send_notification":{"event_type":"session_start"}},
		{"kind":"log_event","log_event":{"message":"урок начался"}},
		{"kind":"update_session","update_session":{"fields":{"students_present":12}}},
		{"kind":"send_email","send_email":{"to":"dir@school.ru","subject":"s","body":"b"}}
	]`)
	acts, err := models.DecodeActions(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 4 {
		t.Fatalf("ожидали 4 действия, получили %d", len(acts))
	}
	if acts[0].Kind != models.ActionSendNotification || acts[0].SendNotification == nil {
		t.Fatalf("кривое первое действие: %+v", acts[0])
	}
	if acts[0].SendNotification.EventType != models.EventSessionStart {
		t.Fatalf("ожидали session_start, получили %s", acts[0].SendNotification.EventType)
	}
}

func TestDecodeActions_Rejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"unknown_kind", `[{"kind":"launch_rocket"}]`},
		{"missing_payload", `[{"kind":"send_notification"}]`},
		{"mismatched_payload", `[{"kind":"log_event","send_email":{"to":"x"}}]`},
		{"status_via_update", `[{"kind":"update_session","update_session":{"fields":{"status":"finished"}}}]`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := models.DecodeActions([]byte(c.raw)); err == nil {
				t.Fatal("ожидали ошибку декодирования")
			}
		})
	}
}

func TestDecodeActions_Empty(t *testing.T) {
	acts, err := models.DecodeActions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if acts != nil {
		t.Fatalf("ожидали nil, получили %v", acts)
	}
}

func TestValidationError(t *testing.T) {
	err := &models.ValidationError{Field: "body", Unknown: []string{"xyz"}, Reason: "неизвестные переменные"}
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As должен находить ValidationError")
	}
	if ve.Error() == "" {
		t.Fatal("пустое сообщение ошибки")
	}
}

//go:build testutil
// +build testutil

package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/testutil/testdb"
)

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/webhook/secret", strings.NewReader(body))
	r.SetPathValue("token", "secret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_MessageStatusFlow(t *testing.T) {
	hdb, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer hdb.Close()

	ctx := context.Background()
	h := NewHandler(hdb.DB, zap.NewNop(), "secret", "dev1")

	now := time.Now()
	sessID, err := db.CreateSession(ctx, hdb.DB, models.ClassSession{
		ClassID: 1, Subject: "Математика",
		PlannedStartAt: now, PlannedEndAt: now.Add(45 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	logID, err := db.InsertLog(ctx, hdb.DB, models.NotificationLog{
		SessionID: sessID, StudentID: 1, ContactID: 1,
		Phone: "+79161234567", EventType: models.EventSessionStart, Message: "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.MarkLogSent(ctx, hdb.DB, logID, "wh-1", ""); err != nil {
		t.Fatal(err)
	}

	if w := post(t, h, `{"event":"message_status","message_id":"wh-1","status":"delivered"}`); w.Code != http.StatusOK {
		t.Fatalf("код %d", w.Code)
	}
	l, err := db.GetLog(ctx, hdb.DB, logID)
	if err != nil {
		t.Fatal(err)
	}
	if l.Status != models.LogDelivered {
		t.Fatalf("статус %s, ожидали delivered", l.Status)
	}

	// дубликат и неизвестный id — молча подтверждаем
	if w := post(t, h, `{"event":"message_status","message_id":"wh-1","status":"delivered"}`); w.Code != http.StatusOK {
		t.Fatalf("дубликат: код %d", w.Code)
	}
	if w := post(t, h, `{"event":"message_status","message_id":"ghost","status":"read"}`); w.Code != http.StatusOK {
		t.Fatalf("неизвестный id: код %d", w.Code)
	}
}

func TestHandler_DeviceStatus(t *testing.T) {
	hdb, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer hdb.Close()

	h := NewHandler(hdb.DB, zap.NewNop(), "secret", "dev1")
	if w := post(t, h, `{"event":"device_status","status":"online"}`); w.Code != http.StatusOK {
		t.Fatalf("код %d", w.Code)
	}

	cs, err := db.GetConnectionStatus(context.Background(), hdb.DB, "dev1")
	if err != nil {
		t.Fatal(err)
	}
	if cs.State != models.ConnConnected {
		t.Fatalf("state %s, ожидали connected", cs.State)
	}
	if cs.LastConnectedAt == nil {
		t.Fatal("last_connected_at должен быть проставлен при connected")
	}
}

package webhook

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/models"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		in   string
		want models.LogStatus
		ok   bool
	}{
		{"delivered", models.LogDelivered, true},
		{"read", models.LogRead, true},
		{"failed", models.LogFailed, true},
		{"error", models.LogFailed, true},
		{"sent", "", false}, // sent ставит диспетчер, не колбэк
		{"queued", "", false},
	}
	for _, c := range cases {
		got, ok := mapStatus(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("mapStatus(%q) = (%q, %v), ожидали (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func newRequest(t *testing.T, token, body string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/webhook/"+token, strings.NewReader(body))
	r.SetPathValue("token", token)
	return r
}

// Граница с провайдером: всегда 200 и {"success":true}, что бы ни пришло.
func TestHandler_AlwaysAcks(t *testing.T) {
	h := NewHandler(nil, zap.NewNop(), "secret", "dev1")

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"bad_token", newRequest(t, "wrong", `{"event":"message_status"}`)},
		{"malformed_json", newRequest(t, "secret", `{нет`)},
		{"unknown_event", newRequest(t, "secret", `{"event":"sticker_reaction"}`)},
		{"incoming_message", newRequest(t, "secret", `{"event":"incoming_message","from":"+79160000000","text":"ok"}`)},
		{"status_without_id", newRequest(t, "secret", `{"event":"message_status","status":"delivered"}`)},
		{"unmapped_status", newRequest(t, "secret", `{"event":"message_status","message_id":"m1","status":"queued"}`)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, c.req)
			if w.Code != http.StatusOK {
				t.Fatalf("код %d, ожидали 200", w.Code)
			}
			b, _ := io.ReadAll(w.Body)
			if string(b) != `{"success":true}` {
				t.Fatalf("тело %q", b)
			}
		})
	}
}

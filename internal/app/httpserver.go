package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Spok95/school-notify/internal/dispatch"
	"github.com/Spok95/school-notify/internal/metrics"
	"github.com/Spok95/school-notify/internal/session"
	"github.com/Spok95/school-notify/internal/webhook"
)

type HTTPServer struct {
	srv *http.Server
}

// StartHTTP поднимает служебный HTTP: health, метрики, вебхук шлюза
// и операции над сессиями.
func StartHTTP(ctx context.Context, addr string, database *sql.DB, machine *session.Machine, d *dispatch.Dispatcher, wh *webhook.Handler, loc *time.Location, deviceID string) *HTTPServer {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("POST /webhook/{token}", wh)

	s := &sessionAPI{db: database, machine: machine, dispatcher: d, loc: loc, deviceID: deviceID}
	mux.HandleFunc("POST /sessions", s.create)
	mux.HandleFunc("POST /sessions/{id}/{op}", s.transition)
	mux.HandleFunc("PUT /sessions/{id}", s.edit)
	mux.HandleFunc("DELETE /sessions/{id}", s.remove)
	mux.HandleFunc("GET /sessions/{id}", s.get)
	mux.HandleFunc("POST /logs/{id}/resend", s.resend)
	mux.HandleFunc("GET /logs/export", s.exportLogs)
	mux.HandleFunc("GET /gateway/status", s.gatewayStatus)

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = srv.ListenAndServe() // закрываем аккуратно при Shutdown
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}

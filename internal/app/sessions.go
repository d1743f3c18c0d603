package app

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/dispatch"
	"github.com/Spok95/school-notify/internal/metrics"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/session"
)

type sessionAPI struct {
	db         *sql.DB
	machine    *session.Machine
	dispatcher *dispatch.Dispatcher
	loc        *time.Location
	deviceID   string
}

// gatewayStatus — последнее известное состояние шлюза (для дашбордов).
func (a *sessionAPI) gatewayStatus(w http.ResponseWriter, r *http.Request) {
	cs, err := db.GetConnectionStatus(r.Context(), a.db, a.deviceID)
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]string{"state": string(models.ConnDisconnected)})
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":             string(cs.State),
		"last_connected_at": cs.LastConnectedAt,
		"quota_remaining":   cs.QuotaRemaining,
		"last_error":        cs.LastError,
	})
}

type sessionResponse struct {
	ID             int64      `json:"id"`
	ClassID        int64      `json:"class_id"`
	ClassName      string     `json:"class_name"`
	Subject        string     `json:"subject"`
	TeacherName    string     `json:"teacher_name"`
	Status         string     `json:"status"`
	ActualStartAt  *time.Time `json:"actual_start_at,omitempty"`
	ActualBreakAt  *time.Time `json:"actual_break_at,omitempty"`
	ActualResumeAt *time.Time `json:"actual_resume_at,omitempty"`
	ActualEndAt    *time.Time `json:"actual_end_at,omitempty"`
	Notifications  int        `json:"notifications_sent"`
}

func toResponse(s *models.ClassSession) sessionResponse {
	return sessionResponse{
		ID:             s.ID,
		ClassID:        s.ClassID,
		ClassName:      s.ClassName,
		Subject:        s.Subject,
		TeacherName:    s.TeacherName,
		Status:         string(s.Status),
		ActualStartAt:  s.ActualStartAt,
		ActualBreakAt:  s.ActualBreakAt,
		ActualResumeAt: s.ActualResumeAt,
		ActualEndAt:    s.ActualEndAt,
		Notifications:  s.NotificationsSent,
	}
}

type createSessionRequest struct {
	ClassID       int64     `json:"class_id"`
	ClassName     string    `json:"class_name"`
	Subject       string    `json:"subject"`
	TeacherName   string    `json:"teacher_name"`
	PlannedStart  time.Time `json:"planned_start_at"`
	PlannedEnd    time.Time `json:"planned_end_at"`
	BreakMinutes  int       `json:"break_minutes"`
	StudentsTotal int       `json:"students_total"`
}

func (a *sessionAPI) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if req.Subject == "" || req.ClassID == 0 {
		writeErr(w, http.StatusBadRequest, errors.New("class_id и subject обязательны"))
		return
	}
	id, err := db.CreateSession(r.Context(), a.db, models.ClassSession{
		ClassID:        req.ClassID,
		ClassName:      req.ClassName,
		Subject:        req.Subject,
		TeacherName:    req.TeacherName,
		PlannedStartAt: req.PlannedStart,
		PlannedEndAt:   req.PlannedEnd,
		BreakDuration:  time.Duration(req.BreakMinutes) * time.Minute,
		StudentsTotal:  req.StudentsTotal,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// transition — единственная дверь к смене статуса сессии.
func (a *sessionAPI) transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	op := session.Op(r.PathValue("op"))
	switch op {
	case session.OpStart, session.OpBreak, session.OpResume, session.OpFinish, session.OpCancel:
	default:
		writeErr(w, http.StatusBadRequest, errors.New("неизвестная операция"))
		return
	}

	sess, err := a.machine.Apply(r.Context(), id, op)
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		writeErr(w, http.StatusConflict, err)
		return
	case errors.Is(err, models.ErrNotFound):
		writeErr(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	metrics.Transitions.WithLabelValues(string(op)).Inc()
	writeJSON(w, http.StatusOK, toResponse(sess))
}

func (a *sessionAPI) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	sess, err := db.GetSession(r.Context(), a.db, id)
	if errors.Is(err, models.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sess))
}

type editSessionRequest struct {
	Subject      string    `json:"subject"`
	TeacherName  string    `json:"teacher_name"`
	PlannedStart time.Time `json:"planned_start_at"`
	PlannedEnd   time.Time `json:"planned_end_at"`
	BreakMinutes int       `json:"break_minutes"`
}

// edit — правка занятия; легальна только пока оно scheduled.
func (a *sessionAPI) edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	var req editSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	err = a.machine.Edit(r.Context(), models.ClassSession{
		ID:             id,
		Subject:        req.Subject,
		TeacherName:    req.TeacherName,
		PlannedStartAt: req.PlannedStart,
		PlannedEndAt:   req.PlannedEnd,
		BreakDuration:  time.Duration(req.BreakMinutes) * time.Minute,
	})
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		writeErr(w, http.StatusConflict, err)
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	sess, err := db.GetSession(r.Context(), a.db, id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sess))
}

func (a *sessionAPI) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	err = a.machine.Delete(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		writeErr(w, http.StatusConflict, err)
		return
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resend — ручной перезапуск одной записи журнала (операционный инструмент).
func (a *sessionAPI) resend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.dispatcher.Resend(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": string(item.Status),
		"note":   item.Note,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

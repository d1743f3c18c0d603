package webhook

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/gateway"
	"github.com/Spok95/school-notify/internal/metrics"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/observability"
)

// Payload — колбэк провайдера, размечен полем event.
type Payload struct {
	Event     string `json:"event"`
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	Device    string `json:"device"`
	From      string `json:"from"`
	Text      string `json:"text"`
}

// Handler принимает асинхронные колбэки шлюза. Правило границы: что бы
// ни пришло — отвечаем успехом, иначе провайдер начнёт долбить ретраями.
type Handler struct {
	db       *sql.DB
	log      *zap.Logger
	token    string
	deviceID string
}

func NewHandler(database *sql.DB, log *zap.Logger, token, deviceID string) *Handler {
	return &Handler{db: database, log: log, token: token, deviceID: deviceID}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer h.ack(w)

	if r.PathValue("token") != h.token {
		metrics.WebhookCallbacks.WithLabelValues("bad_token").Inc()
		h.log.Warn("вебхук с неверным токеном", zap.String("remote", r.RemoteAddr))
		return
	}

	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		metrics.WebhookCallbacks.WithLabelValues("malformed").Inc()
		h.log.Warn("нечитаемый вебхук", zap.Error(err))
		return
	}

	switch p.Event {
	case "message_status":
		metrics.WebhookCallbacks.WithLabelValues("message_status").Inc()
		h.messageStatus(r, p)
	case "device_status":
		metrics.WebhookCallbacks.WithLabelValues("device_status").Inc()
		h.deviceStatus(r, p)
	case "incoming_message":
		metrics.WebhookCallbacks.WithLabelValues("incoming_message").Inc()
		// входящие сообщения в конвейер не идут, только след в логе
		h.log.Info("входящее сообщение", zap.String("from", p.From))
	default:
		metrics.WebhookCallbacks.WithLabelValues("other").Inc()
		h.log.Debug("колбэк без обработчика", zap.String("event", p.Event))
	}
}

// messageStatus — сверка статусного колбэка с журналом доставки.
func (h *Handler) messageStatus(r *http.Request, p Payload) {
	if p.MessageID == "" {
		h.log.Warn("message_status без message_id")
		return
	}
	next, ok := mapStatus(p.Status)
	if !ok {
		h.log.Debug("статус не двигает журнал", zap.String("status", p.Status))
		return
	}
	applied, err := db.ApplyDeliveryStatus(r.Context(), h.db, p.MessageID, next, p.Reason)
	if err != nil {
		observability.CaptureErr(err)
		h.log.Error("сверка статуса", zap.String("message_id", p.MessageID), zap.Error(err))
		return
	}
	if !applied {
		// неизвестный id или отставший статус: не фатально
		if _, lookErr := db.GetLogByGatewayMessageID(r.Context(), h.db, p.MessageID); errors.Is(lookErr, models.ErrNotFound) {
			h.log.Info("колбэк по неизвестному message_id", zap.String("message_id", p.MessageID))
			return
		}
		h.log.Info("отставший статусный колбэк",
			zap.String("message_id", p.MessageID),
			zap.String("status", p.Status))
	}
}

func (h *Handler) deviceStatus(r *http.Request, p Payload) {
	state := gateway.StateFromProvider(p.Status)
	if err := db.UpsertConnectionState(r.Context(), h.db, h.deviceID, state, nil, p.Reason); err != nil {
		observability.CaptureErr(err)
		h.log.Error("обновление статуса устройства", zap.Error(err))
	}
}

func mapStatus(s string) (models.LogStatus, bool) {
	switch s {
	case "delivered":
		return models.LogDelivered, true
	case "read":
		return models.LogRead, true
	case "failed", "error":
		return models.LogFailed, true
	}
	return "", false
}

func (h *Handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true}`))
}

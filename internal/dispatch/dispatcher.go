package dispatch

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/contacts"
	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/gateway"
	"github.com/Spok95/school-notify/internal/metrics"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/observability"
	"github.com/Spok95/school-notify/internal/template"
)

type ItemStatus string

const (
	ItemSent      ItemStatus = "sent"
	ItemFailed    ItemStatus = "failed"
	ItemDuplicate ItemStatus = "duplicate"
)

// Item — исход одной попытки по контакту.
type Item struct {
	ContactID int64
	Phone     string
	LogID     int64
	Status    ItemStatus
	Note      string
}

// Summary — контракт диспетчера. Транспортные сбои живут внутри него,
// Go-ошибка наружу — только инфраструктурная (БД, шаблоны).
type Summary struct {
	Sent      int
	Failed    int
	Duplicate bool
	Items     []Item
}

// Dispatcher превращает (сессия, ученик, событие) в отправки по контактам
// и ведёт журнал доставки.
type Dispatcher struct {
	db         *sql.DB
	gw         gateway.Client
	templates  *template.Service
	contacts   *contacts.Directory
	log        *zap.Logger
	deviceID   string
	schoolName string
	lang       string
	loc        *time.Location
}

type Config struct {
	DeviceID   string
	SchoolName string
	Language   string
	Location   *time.Location
}

func New(database *sql.DB, gw gateway.Client, tpls *template.Service, dir *contacts.Directory, log *zap.Logger, cfg Config) *Dispatcher {
	if cfg.Language == "" {
		cfg.Language = "ru"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dispatcher{
		db:         database,
		gw:         gw,
		templates:  tpls,
		contacts:   dir,
		log:        log,
		deviceID:   cfg.DeviceID,
		schoolName: cfg.SchoolName,
		lang:       cfg.Language,
		loc:        cfg.Location,
	}
}

// Dispatch — отправка события по всем подходящим контактам ученика.
// Повторный вызов по уже отправленной тройке (сессия, ученик, событие) —
// no-op с прежним результатом, дубликат не уходит.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, studentID int64, event models.TriggerEvent, vars map[string]string) (*Summary, error) {
	prior, err := db.SentLogFor(ctx, d.db, sessionID, studentID, event)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		metrics.DispatchTotal.WithLabelValues("duplicate").Inc()
		return &Summary{
			Sent:      1,
			Duplicate: true,
			Items: []Item{{
				ContactID: prior.ContactID,
				Phone:     prior.Phone,
				LogID:     prior.ID,
				Status:    ItemDuplicate,
				Note:      "уже отправлено: " + string(prior.Status),
			}},
		}, nil
	}

	eligible, err := d.contacts.Eligible(ctx, studentID, event)
	if err != nil {
		return nil, err
	}
	// ноль контактов — не ошибка, просто пустой результат
	if len(eligible) == 0 {
		return &Summary{}, nil
	}

	tpl, err := d.templates.ForEvent(ctx, event, d.lang)
	if err != nil {
		return nil, err
	}

	// контакты независимы: разлетаемся без гарантий порядка
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary Summary
	)
	for _, c := range eligible {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			item := d.sendOne(ctx, sessionID, studentID, event, tpl, c, vars)
			mu.Lock()
			defer mu.Unlock()
			summary.Items = append(summary.Items, item)
			switch item.Status {
			case ItemSent:
				summary.Sent++
			case ItemFailed:
				summary.Failed++
			}
		}()
	}
	wg.Wait()

	if summary.Sent > 0 {
		if err := db.IncrementNotificationsSent(ctx, d.db, sessionID, summary.Sent); err != nil {
			observability.CaptureErr(err)
		}
	}
	return &summary, nil
}

// sendOne — одна строка журнала на одну попытку по контакту.
func (d *Dispatcher) sendOne(ctx context.Context, sessionID, studentID int64, event models.TriggerEvent, tpl *models.NotificationTemplate, c *models.ParentContact, base map[string]string) Item {
	vars := make(map[string]string, len(base)+2)
	for k, v := range base {
		vars[k] = v
	}
	vars["parent_name"] = c.Name

	msg := template.Render(tpl.Body, vars)
	l := models.NotificationLog{
		SessionID:   sessionID,
		StudentID:   studentID,
		ContactID:   c.ID,
		ContactName: c.Name,
		Phone:       c.Phone,
		EventType:   event,
		Message:     msg,
		Variables:   vars,
	}
	logID, err := db.InsertLog(ctx, d.db, l)
	if err != nil {
		observability.CaptureErr(err)
		metrics.DispatchTotal.WithLabelValues("failed").Inc()
		return Item{ContactID: c.ID, Phone: c.Phone, Status: ItemFailed, Note: err.Error()}
	}

	item := Item{ContactID: c.ID, Phone: c.Phone, LogID: logID}
	addr, ok := d.gw.Address(c)
	if !ok {
		reason := "у контакта нет адреса для этого транспорта"
		if err := db.MarkLogFailed(ctx, d.db, logID, reason, ""); err != nil {
			observability.CaptureErr(err)
		}
		metrics.DispatchTotal.WithLabelValues("failed").Inc()
		item.Status = ItemFailed
		item.Note = reason
		return item
	}

	t0 := time.Now()
	res, sendErr := d.gw.Send(ctx, addr, msg)
	metrics.ObserveGatewaySend(time.Since(t0))

	if sendErr != nil {
		// транспортный сбой — в строку журнала, не наружу
		if err := db.MarkLogFailed(ctx, d.db, logID, sendErr.Error(), ""); err != nil {
			observability.CaptureErr(err)
		}
		d.noteGateway(ctx, models.ConnError, nil, sendErr.Error())
		metrics.DispatchTotal.WithLabelValues("failed").Inc()
		item.Status = ItemFailed
		item.Note = sendErr.Error()
		return item
	}

	if err := db.MarkLogSent(ctx, d.db, logID, res.MessageID, res.RawResponse); err != nil {
		observability.CaptureErr(err)
	}
	d.noteGateway(ctx, models.ConnConnected, res.Quota, "")
	metrics.DispatchTotal.WithLabelValues("sent").Inc()
	item.Status = ItemSent
	return item
}

// StudentResult — строка сводки bulk-отправки.
type StudentResult struct {
	StudentID int64
	Summary   *Summary
}

// BulkSummary — сводка по классу: bulk всегда дорабатывает до конца,
// частичные сбои копятся в Details.
type BulkSummary struct {
	Sent    int
	Failed  int
	Details []StudentResult
}

// DispatchForSession — разослать событие всем ученикам класса сессии.
func (d *Dispatcher) DispatchForSession(ctx context.Context, sess *models.ClassSession, event models.TriggerEvent, extra map[string]string) (*BulkSummary, error) {
	roster, err := db.ListClassStudents(ctx, d.db, sess.ClassID)
	if err != nil {
		return nil, err
	}

	base := SessionVars(sess, event, d.schoolName, d.loc)
	for k, v := range extra {
		base[k] = v
	}

	bulk := &BulkSummary{}
	for _, st := range roster {
		vars := make(map[string]string, len(base)+1)
		for k, v := range base {
			vars[k] = v
		}
		vars["student_name"] = st.Name

		sum, err := d.Dispatch(ctx, sess.ID, st.ID, event, vars)
		if err != nil {
			// инфраструктурная ошибка по одному ученику не валит рассылку
			observability.CaptureErr(err)
			bulk.Failed++
			bulk.Details = append(bulk.Details, StudentResult{StudentID: st.ID, Summary: &Summary{Failed: 1}})
			continue
		}
		bulk.Sent += sum.Sent
		bulk.Failed += sum.Failed
		bulk.Details = append(bulk.Details, StudentResult{StudentID: st.ID, Summary: sum})
	}
	return bulk, nil
}

// Resend — повторная отправка по существующей строке журнала: переменные
// восстанавливаются из неё же, строка обновляется, новая не создаётся.
func (d *Dispatcher) Resend(ctx context.Context, logID int64) (*Item, error) {
	l, err := db.GetLog(ctx, d.db, logID)
	if err != nil {
		return nil, err
	}
	if err := db.IncrementLogRetry(ctx, d.db, logID); err != nil {
		return nil, err
	}

	tpl, err := d.templates.ForEvent(ctx, l.EventType, d.lang)
	if err != nil {
		return nil, err
	}
	msg := template.Render(tpl.Body, l.Variables)

	c, err := d.contacts.Get(ctx, l.ContactID)
	if err != nil {
		return nil, err
	}
	addr, ok := d.gw.Address(c)
	if !ok {
		reason := "у контакта нет адреса для этого транспорта"
		if err := db.MarkLogFailed(ctx, d.db, logID, reason, ""); err != nil {
			observability.CaptureErr(err)
		}
		return &Item{ContactID: c.ID, Phone: c.Phone, LogID: logID, Status: ItemFailed, Note: reason}, nil
	}

	t0 := time.Now()
	res, sendErr := d.gw.Send(ctx, addr, msg)
	metrics.ObserveGatewaySend(time.Since(t0))

	item := &Item{ContactID: c.ID, Phone: c.Phone, LogID: logID}
	if sendErr != nil {
		if err := db.MarkLogFailed(ctx, d.db, logID, sendErr.Error(), ""); err != nil {
			observability.CaptureErr(err)
		}
		d.noteGateway(ctx, models.ConnError, nil, sendErr.Error())
		metrics.DispatchTotal.WithLabelValues("retry_failed").Inc()
		item.Status = ItemFailed
		item.Note = sendErr.Error()
		return item, nil
	}
	if err := db.MarkLogSent(ctx, d.db, logID, res.MessageID, res.RawResponse); err != nil {
		observability.CaptureErr(err)
	}
	d.noteGateway(ctx, models.ConnConnected, res.Quota, "")
	metrics.DispatchTotal.WithLabelValues("retry_sent").Inc()
	item.Status = ItemSent
	return item, nil
}

// noteGateway — отметка состояния шлюза по факту попытки отправки.
// nil-квота прежнее значение не затирает.
func (d *Dispatcher) noteGateway(ctx context.Context, state models.ConnState, quota *int, lastErr string) {
	if err := db.UpsertConnectionState(ctx, d.db, d.deviceID, state, quota, lastErr); err != nil {
		observability.CaptureErr(err)
	}
}

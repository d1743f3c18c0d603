package session

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/models"
)

// Op — операция над жизненным циклом сессии.
type Op string

const (
	OpStart  Op = "start"
	OpBreak  Op = "break"
	OpResume Op = "resume"
	OpFinish Op = "finish"
	OpCancel Op = "cancel"
)

type rule struct {
	from     []models.SessionStatus
	to       models.SessionStatus
	tsColumn string
	event    models.TriggerEvent // пустое — переход без уведомлений
}

// Таблица переходов. Всё, чего здесь нет, — запрещено.
var rules = map[Op]rule{
	OpStart: {
		from:     []models.SessionStatus{models.SessionScheduled},
		to:       models.SessionStarted,
		tsColumn: "actual_start_at",
		event:    models.EventSessionStart,
	},
	OpBreak: {
		from:     []models.SessionStatus{models.SessionStarted, models.SessionResumed},
		to:       models.SessionBreak,
		tsColumn: "actual_break_at",
		event:    models.EventSessionBreak,
	},
	OpResume: {
		from:     []models.SessionStatus{models.SessionBreak},
		to:       models.SessionResumed,
		tsColumn: "actual_resume_at",
		event:    models.EventSessionResume,
	},
	OpFinish: {
		from:     []models.SessionStatus{models.SessionStarted, models.SessionBreak, models.SessionResumed},
		to:       models.SessionFinished,
		tsColumn: "actual_end_at",
		event:    models.EventSessionFinish,
	},
	OpCancel: {
		from: []models.SessionStatus{models.SessionScheduled},
		to:   models.SessionCancelled,
	},
}

// TriggerFunc вызывается после того, как переход закоммичен. Не раньше:
// уведомление о незакоммиченном состоянии хуже потерянного.
type TriggerFunc func(ctx context.Context, event models.TriggerEvent, sess *models.ClassSession)

// Machine — владелец жизненного цикла сессий. Статус меняется только
// здесь; гвард проверяется и до, и в момент коммита (одним UPDATE).
type Machine struct {
	db      *sql.DB
	log     *zap.Logger
	trigger TriggerFunc
}

func NewMachine(database *sql.DB, log *zap.Logger) *Machine {
	return &Machine{db: database, log: log}
}

// OnTrigger — подписка движка воркфлоу на переходы.
func (m *Machine) OnTrigger(fn TriggerFunc) { m.trigger = fn }

// Can — быстрая проверка гварда по текущему статусу. Вызывающий обязан
// проверять, но коммит всё равно перепроверит: между Can и Apply могла
// пролезть другая запись.
func Can(cur models.SessionStatus, op Op) bool {
	r, ok := rules[op]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == cur {
			return true
		}
	}
	return false
}

// Apply — выполнить переход. При нарушении гварда возвращает
// ErrInvalidTransition, никогда не паникует.
func (m *Machine) Apply(ctx context.Context, sessionID int64, op Op) (*models.ClassSession, error) {
	r, ok := rules[op]
	if !ok {
		return nil, fmt.Errorf("%w: неизвестная операция %q", models.ErrInvalidTransition, op)
	}

	applied, err := db.TransitionSession(ctx, m.db, sessionID, r.from, r.to, r.tsColumn)
	if err != nil {
		return nil, err
	}
	if !applied {
		// либо сессии нет, либо статус не из разрешённых
		cur, err := db.GetSession(ctx, m.db, sessionID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s из статуса %q", models.ErrInvalidTransition, op, cur.Status)
	}

	sess, err := db.GetSession(ctx, m.db, sessionID)
	if err != nil {
		return nil, err
	}
	m.log.Info("переход сессии",
		zap.Int64("session_id", sessionID),
		zap.String("op", string(op)),
		zap.String("status", string(sess.Status)))

	// событие — строго после коммита
	if r.event != "" && m.trigger != nil {
		m.trigger(ctx, r.event, sess)
	}
	return sess, nil
}

func (m *Machine) Start(ctx context.Context, id int64) (*models.ClassSession, error) {
	return m.Apply(ctx, id, OpStart)
}

func (m *Machine) Break(ctx context.Context, id int64) (*models.ClassSession, error) {
	return m.Apply(ctx, id, OpBreak)
}

func (m *Machine) Resume(ctx context.Context, id int64) (*models.ClassSession, error) {
	return m.Apply(ctx, id, OpResume)
}

func (m *Machine) Finish(ctx context.Context, id int64) (*models.ClassSession, error) {
	return m.Apply(ctx, id, OpFinish)
}

func (m *Machine) Cancel(ctx context.Context, id int64) (*models.ClassSession, error) {
	return m.Apply(ctx, id, OpCancel)
}

// Edit — правка занятия; легальна только пока оно scheduled.
func (m *Machine) Edit(ctx context.Context, s models.ClassSession) error {
	ok, err := db.UpdateScheduled(ctx, m.db, s)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: правка возможна только до старта", models.ErrInvalidTransition)
	}
	return nil
}

// Delete — мягкое удаление; легально только пока scheduled.
func (m *Machine) Delete(ctx context.Context, id int64) error {
	ok, err := db.SoftDeleteScheduled(ctx, m.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: удаление возможно только до старта", models.ErrInvalidTransition)
	}
	return nil
}

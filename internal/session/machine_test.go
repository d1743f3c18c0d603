package session_test

import (
	"testing"

	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/session"
)

func TestCan(t *testing.T) {
	cases := []struct {
		from models.SessionStatus
		op   session.Op
		ok   bool
	}{
		{models.SessionScheduled, session.OpStart, true},
		{models.SessionScheduled, session.OpCancel, true},
		{models.SessionScheduled, session.OpBreak, false},
		{models.SessionScheduled, session.OpFinish, false},

		{models.SessionStarted, session.OpBreak, true},
		{models.SessionStarted, session.OpFinish, true},
		{models.SessionStarted, session.OpStart, false},
		{models.SessionStarted, session.OpResume, false}, // resume без break
		{models.SessionStarted, session.OpCancel, false},

		{models.SessionBreak, session.OpResume, true},
		{models.SessionBreak, session.OpFinish, true},
		{models.SessionBreak, session.OpBreak, false},

		{models.SessionResumed, session.OpBreak, true},
		{models.SessionResumed, session.OpFinish, true},
		{models.SessionResumed, session.OpResume, false},

		{models.SessionFinished, session.OpStart, false},
		{models.SessionFinished, session.OpFinish, false},
		{models.SessionCancelled, session.OpStart, false},
	}
	for _, c := range cases {
		if got := session.Can(c.from, c.op); got != c.ok {
			t.Errorf("Can(%s, %s) = %v, ожидали %v", c.from, c.op, got, c.ok)
		}
	}
}

func TestCan_UnknownOp(t *testing.T) {
	if session.Can(models.SessionScheduled, session.Op("explode")) {
		t.Fatal("неизвестная операция не может быть разрешена")
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []models.SessionStatus{models.SessionFinished, models.SessionCancelled} {
		if !s.Terminal() {
			t.Errorf("%s должен быть терминальным", s)
		}
	}
	for _, s := range []models.SessionStatus{models.SessionScheduled, models.SessionStarted, models.SessionBreak, models.SessionResumed} {
		if s.Terminal() {
			t.Errorf("%s не должен быть терминальным", s)
		}
	}
}

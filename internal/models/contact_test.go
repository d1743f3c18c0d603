package models_test

import (
	"testing"

	"github.com/Spok95/school-notify/internal/models"
)

func TestContactDestination(t *testing.T) {
	c := models.ParentContact{Phone: "+79161111111"}
	if c.Destination() != "+79161111111" {
		t.Fatalf("получили %q", c.Destination())
	}
	c.WhatsAppPhone = "+79162222222"
	if c.Destination() != "+79162222222" {
		t.Fatal("whatsapp-номер должен иметь приоритет")
	}
}

func TestContactWantsEvent(t *testing.T) {
	c := models.ParentContact{}
	if !c.WantsEvent(models.EventSessionStart) {
		t.Fatal("без преференций все события разрешены")
	}

	c.EventPrefs = map[string]bool{
		"session_break": false,
		"session_start": true,
	}
	if c.WantsEvent(models.EventSessionBreak) {
		t.Fatal("явный запрет должен работать")
	}
	if !c.WantsEvent(models.EventSessionStart) {
		t.Fatal("явное разрешение должно работать")
	}
	if !c.WantsEvent(models.EventSessionFinish) {
		t.Fatal("событие без записи считается разрешённым")
	}
}

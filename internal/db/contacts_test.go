//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/school-notify/internal/db"
	"github.com/Spok95/school-notify/internal/models"
	"github.com/Spok95/school-notify/internal/testutil/testdb"
)

func mustSeedContact(t *testing.T, h *testdb.DBHandle, studentID int64, name string) int64 {
	t.Helper()
	id, err := db.SaveContact(context.Background(), h.DB, models.ParentContact{
		StudentID:   studentID,
		Type:        models.ContactMother,
		Name:        name,
		Phone:       "+79161234567",
		Active:      true,
		NotifyOptIn: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func countPrimary(t *testing.T, h *testdb.DBHandle, studentID int64) int {
	t.Helper()
	var n int
	if err := h.DB.QueryRow(
		`SELECT count(*) FROM parent_contacts WHERE student_id = $1 AND is_primary`,
		studentID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestSetPrimaryContact(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	c1 := mustSeedContact(t, h, 1, "Мама")
	c2 := mustSeedContact(t, h, 1, "Папа")

	if err := db.SetPrimaryContact(ctx, h.DB, 1, c1); err != nil {
		t.Fatal(err)
	}
	if n := countPrimary(t, h, 1); n != 1 {
		t.Fatalf("primary контактов %d, ожидали 1", n)
	}

	// перенос на другой контакт: инвариант держится
	if err := db.SetPrimaryContact(ctx, h.DB, 1, c2); err != nil {
		t.Fatal(err)
	}
	if n := countPrimary(t, h, 1); n != 1 {
		t.Fatalf("после переноса primary контактов %d, ожидали 1", n)
	}
	got, err := db.GetContact(ctx, h.DB, c2)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Primary {
		t.Fatal("c2 должен стать primary")
	}
}

func TestSetPrimaryContact_WrongStudent(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	c1 := mustSeedContact(t, h, 1, "Мама")
	mustSeedContact(t, h, 2, "Чужая мама")

	if err := db.SetPrimaryContact(ctx, h.DB, 2, c1); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("чужой контакт: ожидали ErrNotFound, получили %v", err)
	}
	// транзакция откатилась, у первого ученика ничего не поменялось
	if n := countPrimary(t, h, 1); n != 0 {
		t.Fatalf("после отката primary контактов %d, ожидали 0", n)
	}
}

func TestListActiveContacts_Filters(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	ctx := context.Background()
	mustSeedContact(t, h, 5, "Мама")
	if _, err := db.SaveContact(ctx, h.DB, models.ParentContact{
		StudentID: 5, Type: models.ContactFather, Name: "Папа",
		Phone: "+79160000000", Active: true, NotifyOptIn: false,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveContact(ctx, h.DB, models.ParentContact{
		StudentID: 5, Type: models.ContactGuardian, Name: "Опекун",
		Phone: "+79167777777", Active: false, NotifyOptIn: true,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListActiveContacts(ctx, h.DB, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Мама" {
		t.Fatalf("ожидали только активный подписанный контакт, получили %d", len(got))
	}
}

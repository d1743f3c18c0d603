package contacts_test

import (
	"testing"

	"github.com/Spok95/school-notify/internal/contacts"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+79161234567", "+79161234567"},
		{"89161234567", "+79161234567"},
		{"79161234567", "+79161234567"},
		{"9161234567", "+79161234567"},
		{"8 (916) 123-45-67", "+79161234567"},
		{"+7 916 123 45 67", "+79161234567"},
		{"+442079460958", "+442079460958"},
		{"442079460958", "+442079460958"},
	}
	for _, c := range cases {
		got, err := contacts.NormalizePhone(c.in)
		if err != nil {
			t.Fatalf("%q: не ожидали ошибку: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: ожидали %q, получили %q", c.in, c.want, got)
		}
	}
}

func TestNormalizePhone_Rejects(t *testing.T) {
	for _, in := range []string{"", "12345", "абвгд", "8916123"} {
		if got, err := contacts.NormalizePhone(in); err == nil {
			t.Fatalf("%q: ожидали ошибку, получили %q", in, got)
		}
	}
}

package content

import (
	"errors"
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2021, time.March, 15, 19, 25, 28, 0, time.UTC), "15 mar 2021"},
		{time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC), "1 fev 2021"},
		{time.Date(2020, time.December, 31, 23, 59, 0, 0, time.UTC), "31 dez 2020"},
		{time.Date(2019, time.May, 9, 8, 0, 0, 0, time.UTC), "9 mai 2019"},
	}
	for _, tt := range tests {
		in := tt.in
		got, err := FormatDate(&in)
		if err != nil {
			t.Fatalf("FormatDate(%v) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDateDeterministic(t *testing.T) {
	in := time.Date(2021, time.April, 19, 12, 0, 0, 0, time.UTC)
	first, _ := FormatDate(&in)
	for i := 0; i < 10; i++ {
		got, _ := FormatDate(&in)
		if got != first {
			t.Fatalf("FormatDate not deterministic: %q vs %q", got, first)
		}
	}
}

func TestFormatDateNil(t *testing.T) {
	if _, err := FormatDate(nil); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("FormatDate(nil) error = %v, want ErrInvalidDate", err)
	}
	zero := time.Time{}
	if _, err := FormatDate(&zero); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("FormatDate(zero) error = %v, want ErrInvalidDate", err)
	}
	if got := DisplayDate(nil); got != UnpublishedPlaceholder {
		t.Errorf("DisplayDate(nil) = %q, want %q", got, UnpublishedPlaceholder)
	}
}

func TestDateFormatterLocale(t *testing.T) {
	in := time.Date(2021, time.February, 3, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		locale string
		want   string
	}{
		{"pt-BR", "3 fev 2021"},
		{"en-US", "3 Feb 2021"},
		{"en", "3 Feb 2021"},
		{"es", "3 feb 2021"},
		{"not a tag", "3 fev 2021"},
	}
	for _, tt := range tests {
		got, err := NewDateFormatter(tt.locale, nil).Format(&in)
		if err != nil {
			t.Fatalf("Format(%q) error: %v", tt.locale, err)
		}
		if got != tt.want {
			t.Errorf("locale %q: got %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestDateFormatterLocation(t *testing.T) {
	in := time.Date(2021, time.March, 1, 1, 0, 0, 0, time.UTC)
	loc := time.FixedZone("BRT", -3*60*60)
	got, _ := NewDateFormatter("pt-BR", loc).Format(&in)
	if got != "28 fev 2021" {
		t.Errorf("got %q, want %q", got, "28 fev 2021")
	}
}

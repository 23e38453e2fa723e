package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseDateISO(t *testing.T) {
	got, ok := ParseDate("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-10-10" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateAcceptanceTimestamp(t *testing.T) {
	got, ok := ParseDate("20230203180512")
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2023-02-03" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateRFC3339DropsClock(t *testing.T) {
	got, ok := ParseDate("2024-10-10T22:10:10Z")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseDate(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if FormatDate(got) != "2024-10-10" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
	if got := ParseDateDefault("not a date", def); !got.Equal(def) {
		t.Fatalf("expected default for garbage")
	}
}

func TestLookbackRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	from, to := LookbackRange(now, 7)
	if FormatDate(from) != "2024-03-03" || FormatDate(to) != "2024-03-10" {
		t.Fatalf("unexpected range %v %v", from, to)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 8, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := DaysBetween(b, a); got != -7 {
		t.Fatalf("expected -7, got %d", got)
	}
}

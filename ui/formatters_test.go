package ui

import (
	"strings"
	"testing"

	"github.com/purplemusic/purplemusic/domain"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{60, "01:00"},
		{194.7, "03:14"},
		{-5, "00:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.seconds); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

func TestCreateProgressBarClamps(t *testing.T) {
	bar := CreateProgressBar(1.5, 10)
	if !strings.Contains(bar, "100.0%") {
		t.Errorf("overshoot not clamped to 100%%: %q", bar)
	}
	bar = CreateProgressBar(-0.5, 10)
	if !strings.Contains(bar, "0.0%") {
		t.Errorf("undershoot not clamped to 0%%: %q", bar)
	}
}

func TestFormatPlayMode(t *testing.T) {
	got := FormatPlayMode(domain.PlayMode{Shuffle: true, Repeat: domain.RepeatOne})
	if !strings.Contains(got, "shuffle on") || !strings.Contains(got, "repeat one") {
		t.Errorf("unexpected mode text: %q", got)
	}

	got = FormatPlayMode(domain.PlayMode{})
	if !strings.Contains(got, "shuffle off") || !strings.Contains(got, "repeat off") {
		t.Errorf("unexpected mode text: %q", got)
	}
}

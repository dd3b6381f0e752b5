package shared

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to buffer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "account", "Sulpak")
		logger.Info("sync complete", "added", 3)

		out := buf.String()
		if !strings.Contains(out, "sync complete") || !strings.Contains(out, "account=Sulpak") {
			t.Errorf("unexpected log output %q", out)
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dash.log")
		if _, err := NewFileLogger(path); err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		tests := []struct {
			in   string
			want log.Level
		}{
			{"", log.InfoLevel},
			{"debug", log.DebugLevel},
			{" WARN ", log.WarnLevel},
			{"nonsense", log.InfoLevel},
		}
		for _, tt := range tests {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	})

	t.Run("ShortID", func(t *testing.T) {
		id := GenerateID()
		if short := ShortID(id); len(short) != 8 || !strings.HasPrefix(id, short) {
			t.Errorf("unexpected short id %q for %q", short, id)
		}
		if ShortID("plain") != "plain" {
			t.Error("ids without dashes should be returned whole")
		}
	})
}

func TestDates(t *testing.T) {
	t.Run("FormatDate", func(t *testing.T) {
		if got := FormatDate(date(2026, time.March, 5)); got != "05.03.2026" {
			t.Errorf("FormatDate() = %q, want 05.03.2026", got)
		}
	})

	t.Run("ParseDate", func(t *testing.T) {
		tests := []struct {
			name    string
			in      string
			want    time.Time
			wantErr bool
		}{
			{"canonical", "01.03.2026", date(2026, time.March, 1), false},
			{"single digits", "1.3.2026", date(2026, time.March, 1), false},
			{"surrounding space", " 10.03.2026 ", date(2026, time.March, 10), false},
			{"iso", "2026-03-10", date(2026, time.March, 10), false},
			{"empty", "", time.Time{}, true},
			{"text", "готово", time.Time{}, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseDate(tt.in)
				if tt.wantErr {
					if !errors.Is(err, ErrInvalidDate) {
						t.Errorf("expected ErrInvalidDate, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !got.Equal(tt.want) {
					t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
				}
			})
		}
	})

	t.Run("DaysBetween", func(t *testing.T) {
		tests := []struct {
			name     string
			from, to time.Time
			want     int
		}{
			{"same day", date(2026, 3, 1), date(2026, 3, 1), 0},
			{"nine days", date(2026, 3, 1), date(2026, 3, 10), 9},
			{"across month", date(2026, 2, 27), date(2026, 3, 2), 3},
			{"negative", date(2026, 3, 10), date(2026, 3, 1), -9},
			{"ignores time of day", date(2026, 3, 1).Add(23 * time.Hour), date(2026, 3, 2), 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := DaysBetween(tt.from, tt.to); got != tt.want {
					t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
				}
			})
		}
	})

	t.Run("MonthTitle", func(t *testing.T) {
		if got := MonthTitle(date(2026, time.October, 15)); got != "2026-10" {
			t.Errorf("MonthTitle() = %q, want 2026-10", got)
		}
	})
}

func TestSchedule(t *testing.T) {
	t.Run("NextRun", func(t *testing.T) {
		tests := []struct {
			name string
			now  time.Time
			want time.Time
		}{
			{"before run time", time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
			{"exactly at run time", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
			{"after run time", time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := NextRun(tt.now, 9, 0); !got.Equal(tt.want) {
					t.Errorf("NextRun() = %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("SleepUntil honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := SleepUntil(ctx, time.Now().Add(time.Hour)); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("SleepUntil past time returns", func(t *testing.T) {
		if err := SleepUntil(context.Background(), time.Now().Add(-time.Second)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestRunLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "merchtrack.lock")

	first, err := NewRunLock(path)
	if err != nil {
		t.Fatalf("failed to create lock: %v", err)
	}
	second, err := NewRunLock(path)
	if err != nil {
		t.Fatalf("failed to create second lock: %v", err)
	}

	if err := first.Acquire(); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if err := second.Acquire(); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress while held, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if err := second.Acquire(); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
	second.Release()
}

func TestOpenURL(t *testing.T) {
	var gotName string
	var gotArgs []string
	origStart, origRuntime := startCommand, getRuntime
	t.Cleanup(func() { startCommand, getRuntime = origStart, origRuntime })

	startCommand = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	t.Run("linux", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		link := SpreadsheetURL("abc123")
		if err := OpenURL(link); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotName != "xdg-open" || len(gotArgs) != 1 || gotArgs[0] != link {
			t.Errorf("unexpected command %s %v", gotName, gotArgs)
		}
	})

	t.Run("rejects non web links", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		if err := OpenURL("file:///etc/passwd"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if err := OpenURL("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}

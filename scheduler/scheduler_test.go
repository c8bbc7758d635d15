package scheduler

import (
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("valid timezone", func(t *testing.T) {
		s, err := New("America/New_York")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer s.Stop()
		if s.location.String() != "America/New_York" {
			t.Errorf("expected America/New_York, got %s", s.location.String())
		}
	})

	t.Run("invalid timezone", func(t *testing.T) {
		if _, err := New("Invalid/Zone"); err == nil {
			t.Fatal("expected error for invalid timezone")
		}
	})
}

func TestSchedule(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.Schedule("14:30", func() {}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSchedule_InvalidTime(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	for _, input := range []string{"25:00", "12:60", "abc", "9:00", ""} {
		if err := s.Schedule(input, func() {}); err == nil {
			t.Errorf("Schedule(%q) expected error", input)
		}
	}
}

func TestSchedule_ReplacesPreviousRun(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.Schedule("08:00", func() {}); err != nil {
		t.Fatal(err)
	}
	firstEntry := s.entryID

	if err := s.Schedule("10:00", func() {}); err != nil {
		t.Fatal(err)
	}
	if s.entryID == firstEntry {
		t.Error("expected entry ID to change after reschedule")
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("expected a single cron entry after reschedule, got %d", len(s.cron.Entries()))
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	s.Stop()
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input  string
		hour   int
		minute int
		valid  bool
	}{
		{"00:00", 0, 0, true},
		{"09:30", 9, 30, true},
		{"23:59", 23, 59, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"1:00", 0, 0, false},
		{"abc", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		h, m, err := parseTime(tt.input)
		if tt.valid {
			if err != nil {
				t.Errorf("parseTime(%q) unexpected error: %v", tt.input, err)
			}
			if h != tt.hour || m != tt.minute {
				t.Errorf("parseTime(%q) = %d:%d, want %d:%d", tt.input, h, m, tt.hour, tt.minute)
			}
		} else {
			if err == nil {
				t.Errorf("parseTime(%q) expected error", tt.input)
			}
		}
	}
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slot(start, end string) Session {
	return Session{
		ID:        "sess-1",
		Date:      time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		StartTime: start,
		EndTime:   end,
	}
}

func TestSessionWindowAppliesGraces(t *testing.T) {
	start, end, err := slot("09:00", "11:00").Window(15*time.Minute, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 10, 8, 45, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 10, 11, 30, 0, 0, time.UTC), end)
}

func TestSessionWindowRejectsInvertedSlot(t *testing.T) {
	_, _, err := slot("11:00", "09:00").Window(0, 0)
	require.Error(t, err)
}

func TestSessionWindowRejectsBadClock(t *testing.T) {
	_, _, err := slot("9am", "11:00").Window(0, 0)
	require.Error(t, err)
}

func TestSessionActiveAt(t *testing.T) {
	s := slot("09:00", "11:00")
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before grace", time.Date(2026, 4, 10, 8, 30, 0, 0, time.UTC), false},
		{"grace start", time.Date(2026, 4, 10, 8, 45, 0, 0, time.UTC), true},
		{"mid session", time.Date(2026, 4, 10, 10, 0, 0, 0, time.UTC), true},
		{"grace end", time.Date(2026, 4, 10, 11, 30, 0, 0, time.UTC), true},
		{"after grace", time.Date(2026, 4, 10, 11, 31, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			active, err := s.ActiveAt(tc.now, 15*time.Minute, 30*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, tc.want, active)
		})
	}
}

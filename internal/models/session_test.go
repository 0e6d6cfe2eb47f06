package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestActiveElapsed(t *testing.T) {
	start := int64(1_000_000)
	at := func(offset int64) time.Time { return time.Unix(start+offset, 0) }

	tests := []struct {
		name string
		sess CookingSession
		now  time.Time
		want time.Duration
	}{
		{
			name: "active counts wall clock minus pauses",
			sess: CookingSession{Status: SessionActive, StartedAt: start, TotalPauseDurationSeconds: 60},
			now:  at(200),
			want: 140 * time.Second,
		},
		{
			name: "paused freezes at pause instant",
			sess: CookingSession{Status: SessionPaused, StartedAt: start, PausedAt: ptr(start + 100)},
			now:  at(500),
			want: 100 * time.Second,
		},
		{
			name: "completed freezes at completion",
			sess: CookingSession{Status: SessionCompleted, StartedAt: start, CompletedAt: ptr(start + 300), TotalPauseDurationSeconds: 50},
			now:  at(9999),
			want: 250 * time.Second,
		},
		{
			name: "abandoned freezes at abandonment",
			sess: CookingSession{Status: SessionAbandoned, StartedAt: start, AbandonedAt: ptr(start + 80)},
			now:  at(9999),
			want: 80 * time.Second,
		},
		{
			name: "never negative",
			sess: CookingSession{Status: SessionActive, StartedAt: start, TotalPauseDurationSeconds: 500},
			now:  at(100),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.ActiveElapsed(tt.now); got != tt.want {
				t.Errorf("ActiveElapsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimerRemaining(t *testing.T) {
	start := int64(1_000_000)
	at := func(offset int64) time.Time { return time.Unix(start+offset, 0) }

	tests := []struct {
		name  string
		timer CookingTimer
		now   time.Time
		want  int64
	}{
		{
			name:  "running counts down",
			timer: CookingTimer{Status: TimerRunning, DurationSeconds: 300, StartedAt: start},
			now:   at(120),
			want:  180,
		},
		{
			name:  "pause time excluded",
			timer: CookingTimer{Status: TimerRunning, DurationSeconds: 300, StartedAt: start, TotalPauseDurationSeconds: 60},
			now:   at(120),
			want:  240,
		},
		{
			name:  "paused freezes at pause instant",
			timer: CookingTimer{Status: TimerPaused, DurationSeconds: 300, StartedAt: start, PausedAt: ptr(start + 100)},
			now:   at(9999),
			want:  200,
		},
		{
			name:  "overdue goes negative",
			timer: CookingTimer{Status: TimerRunning, DurationSeconds: 60, StartedAt: start},
			now:   at(100),
			want:  -40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.timer.Remaining(tt.now); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSyncMetaTouch(t *testing.T) {
	var m SyncMeta
	m.Touch(100)
	if m.CreatedAt != 100 || m.UpdatedAt != 100 {
		t.Fatalf("first touch: created=%d updated=%d, want 100/100", m.CreatedAt, m.UpdatedAt)
	}
	m.Touch(200)
	if m.CreatedAt != 100 {
		t.Errorf("second touch changed CreatedAt to %d", m.CreatedAt)
	}
	if m.UpdatedAt != 200 {
		t.Errorf("second touch: UpdatedAt = %d, want 200", m.UpdatedAt)
	}
}

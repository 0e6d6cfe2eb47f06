package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:30", want: TimeOfDay{Hour: 8, Minute: 30}},
		{in: "00:00", want: TimeOfDay{}},
		{in: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{in: "7:05", want: TimeOfDay{Hour: 7, Minute: 5}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTimeOfDayJSONRoundTrip(t *testing.T) {
	in := TimeOfDay{Hour: 6, Minute: 5}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"06:05"` {
		t.Errorf("marshaled as %s, want \"06:05\"", data)
	}
	var out TimeOfDay
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip changed value: %v -> %v", in, out)
	}
}

func TestReminderHasDay(t *testing.T) {
	r := &MealReminder{DaysOfWeek: []time.Weekday{time.Monday, time.Friday}}
	if !r.HasDay(time.Monday) || !r.HasDay(time.Friday) {
		t.Error("expected Monday and Friday enabled")
	}
	if r.HasDay(time.Sunday) {
		t.Error("Sunday should not be enabled")
	}
}

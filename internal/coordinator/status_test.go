package coordinator

import "testing"

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPlanning, StatusRunning, true},
		{StatusPlanning, StatusFailed, true},
		{StatusPlanning, StatusCompleted, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPlanning, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusRunning, false},
		{StatusFailed, StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := validTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("validTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusPlanning, StatusRunning} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	live := &Session{
		ID:     "s1",
		Status: StatusCompleted,
		Result: map[string]any{"total": 3},
	}
	snap := live.snapshot()
	snap.Result["total"] = 99

	if live.Result["total"] != 3 {
		t.Error("Mutating a snapshot must not touch the live session")
	}
}

package domain

import "testing"

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   Status
		to     Status
		expect bool
	}{
		// From unassigned
		{"unassigned -> offered", StatusUnassigned, StatusOffered, true},
		{"unassigned -> in_progress", StatusUnassigned, StatusInProgress, true},
		{"unassigned -> cancelled", StatusUnassigned, StatusCancelled, true},
		{"unassigned -> completed", StatusUnassigned, StatusCompleted, false},
		{"unassigned -> reviewing", StatusUnassigned, StatusReviewing, false},

		// From offered
		{"offered -> in_progress", StatusOffered, StatusInProgress, true},
		{"offered -> unassigned", StatusOffered, StatusUnassigned, true},
		{"offered -> failed", StatusOffered, StatusFailed, true},
		{"offered -> paused", StatusOffered, StatusPaused, false},

		// From in_progress
		{"in_progress -> reviewing", StatusInProgress, StatusReviewing, true},
		{"in_progress -> completed", StatusInProgress, StatusCompleted, true},
		{"in_progress -> paused", StatusInProgress, StatusPaused, true},
		{"in_progress -> unassigned", StatusInProgress, StatusUnassigned, false},
		{"in_progress -> offered", StatusInProgress, StatusOffered, false},

		// From paused
		{"paused -> in_progress", StatusPaused, StatusInProgress, true},
		{"paused -> cancelled", StatusPaused, StatusCancelled, true},
		{"paused -> completed", StatusPaused, StatusCompleted, false},

		// From reviewing
		{"reviewing -> completed", StatusReviewing, StatusCompleted, true},
		{"reviewing -> in_progress", StatusReviewing, StatusInProgress, true},
		{"reviewing -> paused", StatusReviewing, StatusPaused, false},

		// Terminal
		{"completed -> in_progress", StatusCompleted, StatusInProgress, false},
		{"failed -> in_progress", StatusFailed, StatusInProgress, false},
		{"cancelled -> unassigned", StatusCancelled, StatusUnassigned, false},
		{"cancelled -> cancelled", StatusCancelled, StatusCancelled, false},

		// Unknown
		{"unknown -> in_progress", Status("bogus"), StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.CanTransitionTo(tt.to)
			if got != tt.expect {
				t.Errorf("CanTransitionTo(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expect)
			}
		})
	}
}

func TestStatus_FailedAndCancelledReachableFromNonTerminal(t *testing.T) {
	for _, s := range AllStatuses() {
		if s.IsTerminal() {
			continue
		}
		if !s.CanTransitionTo(StatusFailed) {
			t.Errorf("%s should reach failed", s)
		}
		if !s.CanTransitionTo(StatusCancelled) {
			t.Errorf("%s should reach cancelled", s)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		expect bool
	}{
		{StatusUnassigned, false},
		{StatusOffered, false},
		{StatusInProgress, false},
		{StatusPaused, false},
		{StatusReviewing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expect {
				t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.expect)
			}
		})
	}
}

func TestStatus_NotifiesSession(t *testing.T) {
	notifying := map[Status]bool{
		StatusOffered:    true,
		StatusInProgress: true,
		StatusCompleted:  true,
	}
	for _, s := range AllStatuses() {
		if got := s.NotifiesSession(); got != notifying[s] {
			t.Errorf("NotifiesSession(%s) = %v, want %v", s, got, notifying[s])
		}
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("in_progress")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if got != StatusInProgress {
		t.Errorf("ParseStatus() = %q, want %q", got, StatusInProgress)
	}

	if _, err := ParseStatus("todo"); err == nil {
		t.Error("ParseStatus(todo) should fail")
	}
}

func TestStatus_Display(t *testing.T) {
	if got := StatusInProgress.Display(); got != "In Progress" {
		t.Errorf("Display() = %q, want %q", got, "In Progress")
	}
	if got := Status("custom").Display(); got != "custom" {
		t.Errorf("Display() = %q, want %q", got, "custom")
	}
}

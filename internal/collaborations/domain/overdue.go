package domain

import "time"

// IsOverdue is the single rule behind the persisted overdue flag.
func IsOverdue(deadline *time.Time, stage Stage, now time.Time) bool {
	if deadline == nil || stage.IsTerminalComplete() {
		return false
	}
	return deadline.Before(now)
}

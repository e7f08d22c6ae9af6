package domain

import (
	"testing"
	"time"
)

func TestCallTaskDue(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	task := CallTask{Status: TaskStatusScheduled, ScheduledAt: now.Add(-time.Minute)}
	if !task.Due(now) {
		t.Errorf("past scheduled task must be due")
	}

	task.ScheduledAt = now
	if !task.Due(now) {
		t.Errorf("task scheduled exactly now must be due")
	}

	task.ScheduledAt = now.Add(time.Minute)
	if task.Due(now) {
		t.Errorf("future task must not be due")
	}

	for _, status := range []TaskStatus{TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed, TaskStatusPaused, TaskStatusAborted} {
		task := CallTask{Status: status, ScheduledAt: now.Add(-time.Hour)}
		if task.Due(now) {
			t.Errorf("status %s must not be due", status)
		}
	}
}

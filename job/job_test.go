package job_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/syncengine/job"
)

func TestNew_Defaults(t *testing.T) {
	j := job.New(job.Request{Command: "fetch_state"})

	if j.ID.IsNil() {
		t.Error("expected a generated job ID")
	}
	if j.State != job.StatePending {
		t.Errorf("State = %q, want %q", j.State, job.StatePending)
	}
	if j.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0", j.Attempts)
	}
	if j.NextAttemptAt.After(time.Now().UTC()) {
		t.Error("new job should be immediately eligible")
	}
	if j.CreatedAt.IsZero() || j.UpdatedAt.IsZero() {
		t.Error("expected Touch to set timestamps")
	}
}

func TestRequest_ConversationScoped(t *testing.T) {
	scoped := job.Request{Command: "send_message", ConversationID: "conv-1"}
	if !scoped.ConversationScoped() {
		t.Error("request with conversation id should be conversation-scoped")
	}

	free := job.Request{Command: "upload_asset"}
	if free.ConversationScoped() {
		t.Error("request without conversation id should not be conversation-scoped")
	}
}

func TestJob_DeadlineElapsed(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		deadline time.Time
		want     bool
	}{
		{"no deadline", time.Time{}, false},
		{"future deadline", now.Add(time.Hour), false},
		{"past deadline", now.Add(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := job.New(job.Request{Command: "x"})
			j.Deadline = tt.deadline
			if got := j.DeadlineElapsed(now); got != tt.want {
				t.Errorf("DeadlineElapsed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Ready(t *testing.T) {
	now := time.Now().UTC()
	j := job.New(job.Request{Command: "x"})

	j.NextAttemptAt = now.Add(-time.Second)
	if !j.Ready(now) {
		t.Error("job with past NextAttemptAt should be ready")
	}

	j.NextAttemptAt = now.Add(time.Minute)
	if j.Ready(now) {
		t.Error("job with future NextAttemptAt should not be ready")
	}

	j.NextAttemptAt = now
	if !j.Ready(now) {
		t.Error("job is ready exactly at NextAttemptAt")
	}
}

func TestResult_Constructors(t *testing.T) {
	if !job.Success().OK() {
		t.Error("Success should be OK")
	}

	err := errors.New("boom")

	r := job.Retry(err)
	if r.OK() || !r.Retryable || r.Report {
		t.Errorf("Retry = %+v, want retryable non-reported failure", r)
	}

	f := job.Fatal(err)
	if f.OK() || f.Retryable || f.Report {
		t.Errorf("Fatal = %+v, want non-retryable silent failure", f)
	}

	fr := job.Fatal(err).WithReport()
	if !fr.Report {
		t.Error("WithReport should set the report flag")
	}
}

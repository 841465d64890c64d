package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call) Runner {
	return func(name string, args ...string) error {
		*calls = append(*calls, call{name: name, args: args})
		return nil
	}
}

func TestSendBuildsArguments(t *testing.T) {
	var calls []call
	n := NewNotifier().WithRunner(recorder(&calls))

	err := n.Send(Notification{
		Title:   "Title",
		Body:    "Body",
		Urgency: UrgencyCritical,
		Timeout: 2 * time.Second,
		Icon:    "icon",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	got := strings.Join(calls[0].args, " ")
	want := "-u critical -t 2000 -i icon -a todolist Title Body"
	if calls[0].name != "notify-send" || got != want {
		t.Errorf("got %s %q, want notify-send %q", calls[0].name, got, want)
	}
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	var calls []call
	n := NewNotifier().WithRunner(recorder(&calls))
	n.SetEnabled(false)

	n.ReportFailure("add task", errors.New("boom"))

	if len(calls) != 0 {
		t.Errorf("expected no calls, got %d", len(calls))
	}
}

func TestReportFailure(t *testing.T) {
	var calls []call
	n := NewNotifier().WithRunner(recorder(&calls))

	n.ReportFailure("delete task", errors.New("status 500"))
	n.ReportDiscard("toggle task", "1")

	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	body := calls[0].args[len(calls[0].args)-1]
	if body != "Could not delete task: status 500" {
		t.Errorf("body = %q", body)
	}
}

func TestReportFailureIgnoresRunnerError(t *testing.T) {
	n := NewNotifier().WithRunner(func(string, ...string) error {
		return errors.New("notify-send not found")
	})

	// must not panic
	n.ReportFailure("load tasks", errors.New("boom"))
}

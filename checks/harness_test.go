package checks

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/projecteru2/core/log"
	coretypes "github.com/projecteru2/core/types"
)

func TestMain(m *testing.M) {
	_ = log.SetupLog(context.TODO(), &coretypes.ServerLogConfig{Level: "error"}, "")
	os.Exit(m.Run())
}

// --- Run ---

func TestRun_AllPass(t *testing.T) {
	battery := []Check{
		{Name: "first", Run: func(context.Context) (string, error) { return "ok", nil }},
		{Name: "second", Run: func(context.Context) (string, error) { return "fine", nil }},
	}
	card := Run(context.Background(), battery)
	if !card.Ok() {
		t.Fatalf("expected all pass, got %d failed", card.Failed)
	}
	if card.Passed != 2 || card.Failed != 0 {
		t.Errorf("unexpected counts: %d/%d", card.Passed, card.Failed)
	}
	if card.Results[1].Detail != "fine" {
		t.Errorf("unexpected detail: %q", card.Results[1].Detail)
	}
}

func TestRun_FailureNeverSkipsRemaining(t *testing.T) {
	order := []string{}
	battery := []Check{
		{Name: "pass-1", Run: func(context.Context) (string, error) {
			order = append(order, "pass-1")
			return "", nil
		}},
		{Name: "fail", Run: func(context.Context) (string, error) {
			order = append(order, "fail")
			return "", fmt.Errorf("broken")
		}},
		{Name: "pass-2", Run: func(context.Context) (string, error) {
			order = append(order, "pass-2")
			return "", nil
		}},
	}
	card := Run(context.Background(), battery)

	if len(order) != 3 {
		t.Fatalf("expected all 3 checks to run, ran %v", order)
	}
	if card.Passed != 2 || card.Failed != 1 {
		t.Errorf("unexpected counts: %d/%d", card.Passed, card.Failed)
	}
	if card.Ok() {
		t.Error("scorecard with a failure cannot be ok")
	}
	if card.Results[1].Passed || card.Results[1].Detail != "broken" {
		t.Errorf("failed check should carry its error as detail: %+v", card.Results[1])
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	battery := []Check{
		{Name: "a", Run: func(context.Context) (string, error) { return "", nil }},
		{Name: "b", Run: func(context.Context) (string, error) { return "", nil }},
		{Name: "c", Run: func(context.Context) (string, error) { return "", nil }},
	}
	card := Run(context.Background(), battery)
	for i, name := range []string{"a", "b", "c"} {
		if card.Results[i].Name != name {
			t.Errorf("result %d: expected %s, got %s", i, name, card.Results[i].Name)
		}
	}
}

// --- FailureError ---

func TestFailureError_Message(t *testing.T) {
	err := &FailureError{Scorecard: Scorecard{Passed: 2, Failed: 1}}
	if err.Error() != "verification failed: 2/3 checks passed" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

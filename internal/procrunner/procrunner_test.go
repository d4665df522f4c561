package procrunner

import (
	"context"
	"testing"
	"time"
)

func TestRunSuccess(t *testing.T) {
	res := Run(context.Background(), t.TempDir(), []string{"echo", "hi"}, time.Second)
	if !res.Success || res.ExitCode != 0 {
		t.Fatalf("got %+v", res)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	res := Run(context.Background(), t.TempDir(), []string{"false"}, time.Second)
	if res.Success || res.TimedOut {
		t.Fatalf("got %+v", res)
	}
	if res.ExitCode == 0 {
		t.Fatalf("expected non-zero exit code, got %+v", res)
	}
}

func TestRunTimeout(t *testing.T) {
	res := Run(context.Background(), t.TempDir(), []string{"sleep", "5"}, 50*time.Millisecond)
	if !res.TimedOut || res.Success {
		t.Fatalf("got %+v", res)
	}
}

func TestRunMissingBinary(t *testing.T) {
	res := Run(context.Background(), t.TempDir(), []string{"this-binary-does-not-exist-xyz"}, time.Second)
	if res.Success {
		t.Fatalf("got %+v", res)
	}
}

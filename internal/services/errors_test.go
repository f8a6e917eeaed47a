package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"tstomkv/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransfer, "fetch", "sftp get", "copy failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fetch", "sftp get", "copy failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrVerificationFailed, "verify", "", "duration ratio below threshold", nil)
	if !errors.Is(err, services.ErrVerificationFailed) {
		t.Fatalf("expected verification marker, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "duration ratio below threshold") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := map[error]string{
		services.Wrap(services.ErrStopRequested, "check_stop", "", "", nil):           "StopRequested",
		services.Wrap(services.ErrNotUnderRoot, "map", "", "", nil):                   "NotUnderRoot",
		services.Wrap(services.ErrValidation, "transcode", "", "bad ext", nil):        "ValidationError",
		services.Wrap(services.ErrTransfer, "commit", "", "", errors.New("eof")):      "TransferError",
		services.Wrap(services.ErrProcessFailed, "transcode", "", "exit 1", nil):      "ProcessFailed",
		services.Wrap(services.ErrVerificationFailed, "verify", "", "", nil):          "VerificationFailed",
		fmt.Errorf("outer: %w", services.Wrap(services.ErrTransfer, "", "", "", nil)): "TransferError",
		errors.New("plain"): "Error",
	}
	for err, want := range cases {
		if got := services.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
	if services.Kind(nil) != "" {
		t.Fatal("expected empty kind for nil error")
	}
}

func TestExitCode(t *testing.T) {
	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("nil error exit code = %d", code)
	}
	stop := services.Wrap(services.ErrStopRequested, "check_stop", "", "sentinel present", nil)
	if code := services.ExitCode(stop); code != 0 {
		t.Fatalf("stop exit code = %d, want 0", code)
	}
	failed := services.Wrap(services.ErrProcessFailed, "transcode", "", "", nil)
	if code := services.ExitCode(failed); code == 0 {
		t.Fatal("expected non-zero exit code for process failure")
	}
}

func TestIsFatal(t *testing.T) {
	if services.IsFatal(nil) {
		t.Fatal("nil should not be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrNotUnderRoot, "map", "", "", nil)) {
		t.Fatal("not-under-root should be absorbed")
	}
	if services.IsFatal(services.ErrProgressTimedOut) {
		t.Fatal("progress timeout should be absorbed")
	}
	if !services.IsFatal(services.Wrap(services.ErrTransfer, "fetch", "", "", nil)) {
		t.Fatal("transfer error should be fatal")
	}
}

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/domselect/picker"
)

func TestRun_NoModeIsUsageError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), logger, picker.DefaultConfig(), options{})
	if !errors.Is(err, errUsage) {
		t.Errorf("got %v, want errUsage", err)
	}
}

func TestRun_PickNeedsTarget(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), logger, picker.DefaultConfig(), options{file: "page.html"})
	if err == nil || errors.Is(err, errUsage) {
		t.Errorf("got %v, want a missing target error", err)
	}
}

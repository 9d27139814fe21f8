package main

import (
	"context"
	"testing"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

func TestBuiltinFunctions_Echo(t *testing.T) {
	out, err := (builtinFunctions{}).Call(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "hi" {
		t.Errorf("got %q, want %q", out, "hi")
	}
}

func TestBuiltinFunctions_Noop(t *testing.T) {
	out, err := (builtinFunctions{}).Call(context.Background(), "noop", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("got %q, want empty", out)
	}
}

func TestBuiltinFunctions_Timestamp(t *testing.T) {
	out, err := (builtinFunctions{}).Call(context.Background(), "timestamp", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out == "" {
		t.Error("expected a non-empty timestamp")
	}
}

func TestBuiltinFunctions_Unknown(t *testing.T) {
	_, err := (builtinFunctions{}).Call(context.Background(), "does-not-exist", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown function")
	}
	if swarmerr.KindOf(err) != swarmerr.KindInput {
		t.Errorf("expected KindInput, got %v", swarmerr.KindOf(err))
	}
}

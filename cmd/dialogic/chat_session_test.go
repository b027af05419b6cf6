package main

import (
	"testing"

	"dialogic/internal/types"
)

func TestProfileLabel(t *testing.T) {
	if got := profileLabel(types.UserProfile{}); got != "Spanish (B1)" {
		t.Errorf("expected default label, got %q", got)
	}

	p := types.UserProfile{Language: "French", Level: "A2"}
	if got := profileLabel(p); got != "French (A2)" {
		t.Errorf("expected French (A2), got %q", got)
	}
}

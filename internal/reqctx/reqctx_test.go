package reqctx

import (
	"context"
	"testing"
)

func TestWithRunContext(t *testing.T) {
	a := FromContext(WithRunContext(context.Background()))
	b := FromContext(WithRunContext(context.Background()))

	if len(a.RunID) != 16 {
		t.Errorf("expected 16 hex chars, got %q", a.RunID)
	}
	if a.RunID == b.RunID {
		t.Error("expected distinct run IDs")
	}
}

func TestFromContext_Missing(t *testing.T) {
	if rc := FromContext(context.Background()); rc.RunID != "unknown" {
		t.Errorf("expected placeholder run ID, got %q", rc.RunID)
	}
}

package logging

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	l := New()
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Errorf("logger lost in context round trip")
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Errorf("expected default logger for bare context")
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := levelFromEnv().String(); got != "DEBUG" {
		t.Errorf("level = %s, want DEBUG", got)
	}
	t.Setenv("LOG_LEVEL", "")
	if got := levelFromEnv().String(); got != "INFO" {
		t.Errorf("default level = %s, want INFO", got)
	}
}

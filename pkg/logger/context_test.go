package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"platform-service/internal/tenantctx"
)

func TestFromContextTagsTenant(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := WithContext(context.Background(), base)
	FromContext(ctx).Info("platform scope")

	FromContext(tenantctx.Set(ctx, 42)).Info("tenant scope")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if _, tagged := entries[0].ContextMap()["tenant_id"]; tagged {
		t.Fatalf("platform-scope entry must not carry tenant_id")
	}
	if got := entries[1].ContextMap()["tenant_id"]; got != uint64(42) {
		t.Fatalf("tenant_id = %v, want 42", got)
	}
}

package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/roomie/internal/cache"
	"github.com/dukerupert/roomie/internal/config"
)

func TestViewCacheDefaultsToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	views, cleanup, closeViews, err := viewCache(context.Background(), config.Config{}, logger)
	if err != nil {
		t.Fatalf("view cache: %v", err)
	}
	if _, ok := views.(*cache.Memory); !ok {
		t.Errorf("views = %T, want *cache.Memory", views)
	}
	cleanup()
	if err := closeViews(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestViewCacheRedisUnreachable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, _, _, err := viewCache(context.Background(), config.Config{RedisAddr: "127.0.0.1:1"}, logger)
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}

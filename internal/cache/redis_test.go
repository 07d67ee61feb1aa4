package cache

import (
	"context"
	"testing"
)

func TestConnectWithoutURL(t *testing.T) {
	client, err := Connect(context.Background(), "")
	if err != nil || client != nil {
		t.Fatalf("expected nil client and no error, got %v, %v", client, err)
	}
}

func TestConnectBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "://not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStatsKey(t *testing.T) {
	if got := statsKey(42, 3); got != "checkin:stats:42:3" {
		t.Errorf("unexpected key %q", got)
	}
	if got := versionKey(42); got != "checkin:stats:42:version" {
		t.Errorf("unexpected version key %q", got)
	}
}

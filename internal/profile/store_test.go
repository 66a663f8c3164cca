package profile

import (
	"context"
	"testing"
)

func TestUnconfiguredStoreIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	p, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if p != nil {
		t.Fatalf("Get = %+v, want nil", p)
	}

	if err := store.Set(ctx, Profile{Name: "ada", Bio: "mathematician"}); err != nil {
		t.Fatalf("Set err: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
}

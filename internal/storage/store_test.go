package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestUnconfiguredOperationsDegrade(t *testing.T) {
	ctx := context.Background()
	store := Unconfigured{}

	if _, err := store.Insert(ctx, "t", nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Insert err = %v", err)
	}
	if err := store.Update(ctx, uuid.New(), "t", nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Update err = %v", err)
	}
	if _, err := store.Get(ctx, uuid.New()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Get err = %v", err)
	}
	if _, err := store.List(ctx, 50); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("List err = %v", err)
	}
	if err := store.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestHandlerGuardStopsDeliveryAfterClose(t *testing.T) {
	var got []Change
	guard := NewHandlerGuard(func(ch Change) { got = append(got, ch) })

	first := Change{Op: OpInsert, ID: uuid.New()}
	guard.Deliver(first)

	guard.Close()
	// A notification that raced with cancellation must be dropped, not
	// delivered late.
	guard.Deliver(Change{Op: OpUpdate, ID: uuid.New()})
	guard.Deliver(Change{Op: OpDelete, ID: uuid.New()})

	if len(got) != 1 {
		t.Fatalf("delivered %d changes, want only the pre-close one", len(got))
	}
	if got[0] != first {
		t.Fatalf("delivered %+v, want %+v", got[0], first)
	}
}

func TestUnconfiguredSubscribeNeverNotifies(t *testing.T) {
	store := Unconfigured{}

	cancel, err := store.Subscribe(context.Background(), func(Change) {
		t.Fatal("unconfigured store delivered a change")
	})
	if err != nil {
		t.Fatalf("Subscribe err: %v", err)
	}
	cancel()
}

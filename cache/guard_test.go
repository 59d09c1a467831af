package cache

import (
	"context"
	"testing"
	"time"

	"github.com/campuskit/campuskit/kv"
)

func TestSoftLock_FirstWriterWins(t *testing.T) {
	store := kv.NewMemory()
	lock := NewSoftLock(store, time.Second)
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "course:v:1:roster")
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !ok {
		t.Error("first TryAcquire() = false, want true")
	}

	ok, err = lock.TryAcquire(ctx, "course:v:1:roster")
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if ok {
		t.Error("second TryAcquire() = true, want false")
	}
}

func TestSoftLock_ReleaseFreesKey(t *testing.T) {
	store := kv.NewMemory()
	lock := NewSoftLock(store, time.Second)
	ctx := context.Background()

	if _, err := lock.TryAcquire(ctx, "k"); err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if err := lock.Release(ctx, "k"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	ok, err := lock.TryAcquire(ctx, "k")
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !ok {
		t.Error("TryAcquire() after Release = false, want true")
	}
}

func TestSoftLock_TTLCoversCrashedHolder(t *testing.T) {
	store := kv.NewMemory()
	lock := NewSoftLock(store, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := lock.TryAcquire(ctx, "k"); err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}

	// Holder never releases; the TTL must free the key.
	time.Sleep(20 * time.Millisecond)

	ok, err := lock.TryAcquire(ctx, "k")
	if err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !ok {
		t.Error("TryAcquire() after TTL lapse = false, want true")
	}
}

func TestSoftLock_DistinctKeysIndependent(t *testing.T) {
	store := kv.NewMemory()
	lock := NewSoftLock(store, time.Second)
	ctx := context.Background()

	if ok, _ := lock.TryAcquire(ctx, "a"); !ok {
		t.Error("TryAcquire(a) = false, want true")
	}
	if ok, _ := lock.TryAcquire(ctx, "b"); !ok {
		t.Error("TryAcquire(b) = false, want true")
	}
}

func TestHotTracker_PromotesAtThreshold(t *testing.T) {
	store := kv.NewMemory()
	tracker := NewHotTracker(store, time.Minute, 3)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		hot, err := tracker.Touch(ctx, "course:roster:42")
		if err != nil {
			t.Fatalf("Touch() error = %v", err)
		}
		if hot {
			t.Errorf("Touch() #%d = hot, want cold below threshold", i)
		}
	}

	hot, err := tracker.Touch(ctx, "course:roster:42")
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if !hot {
		t.Error("Touch() #3 = cold, want hot at threshold")
	}
}

func TestHotTracker_StickyWithinWindow(t *testing.T) {
	store := kv.NewMemory()
	tracker := NewHotTracker(store, time.Minute, 2)
	ctx := context.Background()

	tracker.Touch(ctx, "k")
	tracker.Touch(ctx, "k")

	// Once promoted, every further touch in the window reports hot.
	for i := 0; i < 5; i++ {
		hot, err := tracker.Touch(ctx, "k")
		if err != nil {
			t.Fatalf("Touch() error = %v", err)
		}
		if !hot {
			t.Errorf("Touch() after promotion = cold, want hot (sticky)")
		}
	}
}

func TestHotTracker_WindowResets(t *testing.T) {
	store := kv.NewMemory()
	tracker := NewHotTracker(store, 20*time.Millisecond, 2)
	ctx := context.Background()

	tracker.Touch(ctx, "k")
	if hot, _ := tracker.Touch(ctx, "k"); !hot {
		t.Fatal("Touch() = cold, want hot at threshold")
	}

	time.Sleep(30 * time.Millisecond)

	hot, err := tracker.Touch(ctx, "k")
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if hot {
		t.Error("Touch() in new window = hot, want cold (counter reset)")
	}
}

func TestHotTracker_KeysTrackedSeparately(t *testing.T) {
	store := kv.NewMemory()
	tracker := NewHotTracker(store, time.Minute, 2)
	ctx := context.Background()

	tracker.Touch(ctx, "a")
	tracker.Touch(ctx, "a")

	hot, err := tracker.Touch(ctx, "b")
	if err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if hot {
		t.Error("Touch(b) = hot, want cold; counters must be per key")
	}
}

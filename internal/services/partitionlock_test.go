package services

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexLockerSerializes(t *testing.T) {
	locks := NewKeyedMutexLocker()
	ctx := context.Background()

	release, err := locks.Acquire(ctx, "user:2024-03-11")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		r, err := locks.Acquire(ctx, "user:2024-03-11")
		if err != nil {
			t.Errorf("second acquire: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestKeyedMutexLockerIndependentKeys(t *testing.T) {
	locks := NewKeyedMutexLocker()
	ctx := context.Background()

	r1, err := locks.Acquire(ctx, "a:2024-03-11")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer r1()

	done := make(chan struct{})
	go func() {
		r2, err := locks.Acquire(ctx, "b:2024-03-11")
		if err != nil {
			t.Errorf("acquire b: %v", err)
		} else {
			r2()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different keys should not contend")
	}
}

func TestKeyedMutexLockerRespectsContext(t *testing.T) {
	locks := NewKeyedMutexLocker()

	release, err := locks.Acquire(context.Background(), "user:2024-03-11")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.Acquire(ctx, "user:2024-03-11"); err == nil {
		t.Fatal("expected context deadline error while lock held")
	}
}

func TestKeyedMutexLockerUnderContention(t *testing.T) {
	locks := NewKeyedMutexLocker()
	ctx := context.Background()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(ctx, "shared")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	if counter != 32 {
		t.Fatalf("counter=%d, want 32 (lost update under contention)", counter)
	}
}

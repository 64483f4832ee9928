package store

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	s := New()

	if _, ok := s.Get("missing"); ok {
		t.Error("Get on empty store returned a value")
	}

	s.Set("k", []byte("v1"), 0)
	if v, ok := s.Get("k"); !ok || string(v) != "v1" {
		t.Errorf("Get after Set = %q, %v", v, ok)
	}

	// Overwrite replaces both value and expiry
	s.Set("k", []byte("v2"), 0)
	if v, _ := s.Get("k"); string(v) != "v2" {
		t.Errorf("Get after overwrite = %q", v)
	}
}

func TestLazyEviction(t *testing.T) {
	s := New()

	s.Set("short", []byte("v"), 20*time.Millisecond)
	s.Set("long", []byte("v"), time.Hour)

	if _, ok := s.Get("short"); !ok {
		t.Error("key missing before its deadline")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := s.Get("short"); ok {
		t.Error("expired key still readable")
	}

	// The read must have removed the entry, not just hidden it
	if _, held := s.entries["short"]; held {
		t.Error("expired entry still present after Get")
	}

	if _, ok := s.Get("long"); !ok {
		t.Error("unexpired key evicted")
	}
}

func TestNoSweepWithoutRead(t *testing.T) {
	s := New()

	s.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	// No reader touched the key, so the entry must still be held
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 before any read", s.Len())
	}

	s.Get("k")
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after the evicting read", s.Len())
	}
}

func TestSetClearsExpiry(t *testing.T) {
	s := New()

	s.Set("k", []byte("v1"), 20*time.Millisecond)
	s.Set("k", []byte("v2"), 0)

	time.Sleep(30 * time.Millisecond)

	if _, ok := s.Get("k"); !ok {
		t.Error("overwrite without ttl kept the old deadline")
	}
}

func TestDelete(t *testing.T) {
	s := New()

	if s.Delete("missing") {
		t.Error("Delete on missing key returned true")
	}

	s.Set("k", []byte("v"), 0)
	if !s.Delete("k") {
		t.Error("Delete on live key returned false")
	}
	if _, ok := s.Get("k"); ok {
		t.Error("key readable after Delete")
	}

	// Deleting an already-expired entry removes it but does not count it
	s.Set("e", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if s.Delete("e") {
		t.Error("Delete counted an expired entry")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after deleting expired entry", s.Len())
	}
}

func TestExists(t *testing.T) {
	s := New()

	if s.Exists("k") {
		t.Error("Exists on missing key")
	}

	s.Set("k", []byte("v"), 10*time.Millisecond)
	if !s.Exists("k") {
		t.Error("Exists on live key returned false")
	}

	time.Sleep(20 * time.Millisecond)
	if s.Exists("k") {
		t.Error("Exists on expired key returned true")
	}
	if s.Len() != 0 {
		t.Error("Exists did not evict the expired entry")
	}
}

func TestTTL(t *testing.T) {
	s := New()

	if _, status := s.TTL("missing"); status != ExpNotFound {
		t.Errorf("TTL status = %v, want ExpNotFound", status)
	}

	s.Set("forever", []byte("v"), 0)
	if _, status := s.TTL("forever"); status != ExpNoTimeout {
		t.Errorf("TTL status = %v, want ExpNoTimeout", status)
	}

	s.Set("k", []byte("v"), time.Hour)
	remaining, status := s.TTL("k")
	if status != ExpActive {
		t.Errorf("TTL status = %v, want ExpActive", status)
	}
	if remaining <= 59*time.Minute || remaining > time.Hour {
		t.Errorf("TTL remaining = %v, want just under an hour", remaining)
	}

	s.Set("gone", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, status := s.TTL("gone"); status != ExpNotFound {
		t.Errorf("TTL status for expired key = %v, want ExpNotFound", status)
	}
	if _, held := s.entries["gone"]; held {
		t.Error("TTL did not evict the expired entry")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	workers := 50
	ops := 10000

	// Writers use a fixed value per key so any torn read is detectable
	expected := make(map[string][]byte, 100)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		expected[key] = bytes.Repeat([]byte{byte(i)}, 64)
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

			for j := 0; j < ops; j++ {
				key := fmt.Sprintf("key-%d", r.Intn(100))

				switch r.Intn(4) {
				case 0:
					s.Set(key, expected[key], 0)
				case 1:
					if v, ok := s.Get(key); ok && !bytes.Equal(v, expected[key]) {
						t.Errorf("torn value for %s: %q", key, v)
						return
					}
				case 2:
					s.Delete(key)
				case 3:
					s.Exists(key)
				}
			}
		}(i)
	}

	wg.Wait()
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestLRU_BasicOperations(t *testing.T) {
	cache := NewLRU(1024)

	key := "http://localhost:5011/audio/conversation1/voice1-1.mp3"
	value := []byte("ID3 audio")

	if err := cache.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(got) != string(value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", got, value)
	}
	if cache.Size() != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", cache.Size(), len(value))
	}

	cache.Delete(key)
	if cache.Contains(key) || cache.Size() != 0 {
		t.Error("Key still present after delete")
	}
}

func TestLRU_Eviction(t *testing.T) {
	cache := NewLRU(100)

	for i := 0; i < 5; i++ {
		if err := cache.Put(fmt.Sprintf("key-%d", i), make([]byte, 20)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// Touch key-0 and key-1 so key-2 becomes least recently used.
	cache.Get("key-0")
	cache.Get("key-1")

	if err := cache.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if cache.Contains("key-2") || cache.Contains("key-3") {
		t.Error("Expected key-2 and key-3 to be evicted")
	}
	if !cache.Contains("key-0") || !cache.Contains("key-1") {
		t.Error("Recently used keys were evicted")
	}
	if cache.Stats().Evictions != 2 {
		t.Errorf("Expected 2 evictions, got %d", cache.Stats().Evictions)
	}
}

func TestLRU_ItemTooLarge(t *testing.T) {
	cache := NewLRU(100)
	if err := cache.Put("large", make([]byte, 200)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Expected ErrItemTooLarge, got %v", err)
	}
}

func TestLRU_UpdateExisting(t *testing.T) {
	cache := NewLRU(1024)
	cache.Put("k", []byte("original"))
	cache.Put("k", []byte("updated-value"))

	got, _ := cache.Get("k")
	if string(got) != "updated-value" {
		t.Errorf("Value not updated: got %s", got)
	}
	if cache.Size() != int64(len("updated-value")) {
		t.Errorf("Size not adjusted on update: %d", cache.Size())
	}
}

func TestLRU_GetOrFetch(t *testing.T) {
	cache := NewLRU(1024)
	calls := 0
	fetch := func(context.Context) ([]byte, error) {
		calls++
		return []byte("body"), nil
	}

	for i := 0; i < 3; i++ {
		v, err := cache.GetOrFetch(context.Background(), "u", fetch)
		if err != nil || string(v) != "body" {
			t.Fatalf("GetOrFetch = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", calls)
	}

	wantErr := errors.New("offline")
	if _, err := cache.GetOrFetch(context.Background(), "other", func(context.Context) ([]byte, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Errorf("Expected fetch error, got %v", err)
	}
	if cache.Contains("other") {
		t.Error("Failed fetch must not be cached")
	}
}

func TestLRU_Stats(t *testing.T) {
	cache := NewLRU(2048)
	cache.Put("a", []byte("value"))
	cache.Get("a")
	cache.Get("b")

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.HitRate() != 0.5 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if s := stats.String(); !strings.Contains(s, "1 items") || !strings.Contains(s, "2.0 KiB") {
		t.Errorf("Unexpected stats string: %q", s)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	cache := NewLRU(4096)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", (i*j)%16)
				cache.Put(key, make([]byte, 64))
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if cache.Size() > 4096 {
		t.Errorf("Cache exceeded capacity: %d", cache.Size())
	}
}

package store

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	state := store.Get()
	if state.Server != "" || len(state.Entries) != 0 || state.Loading {
		t.Errorf("Get() = %+v, want zero state", state)
	}
}

func TestMemoryStore_Update(t *testing.T) {
	store := NewMemoryStore()

	store.Update(ViewState{
		Server:       "s1",
		Entries:      []Entry{{ID: "1", Value: "a"}},
		ServerStatus: json.RawMessage(`"ok"`),
		Health:       "up",
	})

	got := store.Get()
	if got.Server != "s1" {
		t.Errorf("Server = %q, want %q", got.Server, "s1")
	}
	if len(got.Entries) != 1 || got.Entries[0].Value != "a" {
		t.Errorf("Entries = %+v", got.Entries)
	}
	if string(got.ServerStatus) != `"ok"` {
		t.Errorf("ServerStatus = %s", got.ServerStatus)
	}
}

func TestMemoryStore_UpdateReplacesWholesale(t *testing.T) {
	store := NewMemoryStore()

	store.Update(ViewState{Server: "s1", Entries: []Entry{{ID: "1", Value: "a"}, {ID: "2", Value: "b"}}})
	store.Update(ViewState{Server: "s1", Entries: []Entry{{ID: "3", Value: "c"}}})

	got := store.Get()
	if len(got.Entries) != 1 || got.Entries[0].ID != "3" {
		t.Errorf("Entries = %+v, want only entry 3", got.Entries)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	msg := "boom"
	store.Update(ViewState{Entries: []Entry{{ID: "1", Value: "a"}}, LastError: &msg})

	got := store.Get()
	got.Entries[0].Value = "mutated"
	*got.LastError = "mutated"

	again := store.Get()
	if again.Entries[0].Value != "a" {
		t.Errorf("mutation leaked into store: %+v", again.Entries)
	}
	if *again.LastError != "boom" {
		t.Errorf("mutation leaked into store: LastError = %q", *again.LastError)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	go store.Update(ViewState{Server: "s2"})

	select {
	case state := <-ch:
		if state.Server != "s2" {
			t.Errorf("received Server = %q, want %q", state.Server, "s2")
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive update")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	go store.Update(ViewState{Server: "s1"})

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 updates", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	// second call is a no-op
	store.Unsubscribe(ch)
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	_ = store.Subscribe()
	ch2 := store.Subscribe()

	done := make(chan bool)

	go func() {
		for i := 0; i < 2*subscriberBuffer; i++ {
			store.Update(ViewState{Generation: uint64(i)})
		}
		done <- true
	}()

	go func() {
		for range ch2 {
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Update() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	numGoroutines := 10
	numUpdates := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				store.Update(ViewState{Generation: uint64(id*numUpdates + j), Entries: []Entry{{ID: "1"}}})
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numUpdates; j++ {
				_ = store.Get()
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()
}

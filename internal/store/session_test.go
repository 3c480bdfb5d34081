package store

import "testing"

func TestSessionStore_LoadMissingKeepsFallback(t *testing.T) {
	s := NewSessionStore()

	counter := int64(9)
	if s.Load("session-earned", &counter) {
		t.Error("Load of missing key reported found")
	}
	if counter != 9 {
		t.Errorf("fallback overwritten: counter = %d, want 9", counter)
	}
}

func TestSessionStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewSessionStore()

	if !s.Save("session-earned", int64(17)) {
		t.Fatal("Save reported failure")
	}

	var counter int64
	if !s.Load("session-earned", &counter) {
		t.Fatal("Load reported not found")
	}
	if counter != 17 {
		t.Errorf("counter = %d, want 17", counter)
	}
}

func TestSessionStore_Wipe(t *testing.T) {
	s := NewSessionStore()
	s.Save("session-earned", int64(3))
	s.Wipe()

	var counter int64
	if s.Load("session-earned", &counter) {
		t.Error("Load after Wipe reported found")
	}
}

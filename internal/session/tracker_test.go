package session

import (
	"sync"
	"testing"
)

func TestTrackerOverwriteOnSet(t *testing.T) {
	tr := NewMemoryTracker()
	tr.Set(7, Session{Expectation: AwaitingScreenshot, AttemptID: 1})
	tr.Set(7, Session{Expectation: AwaitingScreenshot, AttemptID: 2})

	s, ok := tr.Get(7)
	if !ok {
		t.Fatal("expected a live session")
	}
	if s.AttemptID != 2 {
		t.Fatalf("attempt id = %d, expected 2 (latest set wins)", s.AttemptID)
	}
}

func TestTrackerClear(t *testing.T) {
	tr := NewMemoryTracker()
	tr.Set(7, Session{Expectation: AwaitingScreenshot, AttemptID: 1})
	tr.Clear(7)
	if _, ok := tr.Get(7); ok {
		t.Fatal("session should be gone after Clear")
	}
	// clearing an absent key is a no-op
	tr.Clear(7)
}

func TestTrackerIndependentKeys(t *testing.T) {
	tr := NewMemoryTracker()
	admin, user := int64(1), int64(2)
	tr.Set(admin, Session{Expectation: AwaitingCredentials, TargetID: user})
	tr.Set(user, Session{Expectation: AwaitingScreenshot, AttemptID: 9})

	a, ok := tr.Get(admin)
	if !ok || a.Expectation != AwaitingCredentials || a.TargetID != user {
		t.Fatalf("admin session corrupted: %+v", a)
	}
	u, ok := tr.Get(user)
	if !ok || u.Expectation != AwaitingScreenshot || u.AttemptID != 9 {
		t.Fatalf("user session corrupted: %+v", u)
	}

	tr.Clear(user)
	if _, ok := tr.Get(admin); !ok {
		t.Fatal("clearing the user key must not touch the admin key")
	}
}

func TestTrackerConcurrentActors(t *testing.T) {
	tr := NewMemoryTracker()
	var wg sync.WaitGroup
	for i := int64(0); i < 64; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			tr.Set(id, Session{Expectation: AwaitingScreenshot, AttemptID: id})
			if s, ok := tr.Get(id); !ok || s.AttemptID != id {
				t.Errorf("actor %d observed foreign session %+v", id, s)
			}
			tr.Clear(id)
		}(i)
	}
	wg.Wait()
}

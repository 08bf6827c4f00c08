package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newStores(t *testing.T, opts Options) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"), opts)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(opts),
		"sqlite": sqlite,
	}
}

func TestCreateInitialState(t *testing.T) {
	for _, requireName := range []bool{true, false} {
		for name, store := range newStores(t, Options{RequireName: requireName}) {
			t.Run(fmt.Sprintf("%s/requireName=%v", name, requireName), func(t *testing.T) {
				sess, err := store.Create("42", t0)
				if err != nil {
					t.Fatalf("Create failed: %v", err)
				}

				want := PhaseAwaitingAnswer
				if requireName {
					want = PhaseAwaitingName
				}
				if sess.Phase() != want {
					t.Errorf("Phase: got %s, want %s", sess.Phase(), want)
				}
				if sess.CurrentIndex() != 0 || len(sess.Answers) != 0 {
					t.Errorf("fresh session: index %d answers %d, want 0/0", sess.CurrentIndex(), len(sess.Answers))
				}
				if sess.ID == "" {
					t.Error("session ID should be set")
				}

				got, err := store.Get("42")
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if got == nil || got.ID != sess.ID || got.Phase() != want {
					t.Errorf("Get: got %+v, want id %s phase %s", got, sess.ID, want)
				}
			})
		}
	}
}

func TestGetAbsent(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get("missing")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != nil {
				t.Errorf("Get(missing): got %+v, want nil", got)
			}
		})
	}
}

func TestPutRoundTrip(t *testing.T) {
	for name, store := range newStores(t, Options{RequireName: true}) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create("7", t0)
			sess.DisplayName = "Asha"
			sess.Answers = []Answer{{Option: "Yes", Remark: "ok"}}
			sess.State = AwaitingRemark{Index: 1, Option: "No"}
			sess.UpdatedAt = t0.Add(time.Minute)

			if err := store.Put(sess); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, err := store.Get("7")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.DisplayName != "Asha" {
				t.Errorf("DisplayName: got %q, want %q", got.DisplayName, "Asha")
			}
			st, ok := got.State.(AwaitingRemark)
			if !ok || st.Index != 1 || st.Option != "No" {
				t.Errorf("State: got %#v, want AwaitingRemark{1, No}", got.State)
			}
			if len(got.Answers) != 1 || got.Answers[0] != (Answer{Option: "Yes", Remark: "ok"}) {
				t.Errorf("Answers: got %+v", got.Answers)
			}
			if !got.CreatedAt.Equal(t0) {
				t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, t0)
			}
		})
	}
}

func TestCompletedRoundTrip(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create("9", t0)
			sess.State = Completed{}
			sess.Answers = []Answer{{Option: "No", Remark: "broken"}}
			sess.CompletedAt = t0.Add(5 * time.Minute)
			if err := store.Put(sess); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, _ := store.Get("9")
			if got.Phase() != PhaseCompleted {
				t.Errorf("Phase: got %s, want completed", got.Phase())
			}
			if got.CurrentIndex() != 1 {
				t.Errorf("CurrentIndex: got %d, want 1", got.CurrentIndex())
			}
			if !got.CompletedAt.Equal(sess.CompletedAt) {
				t.Errorf("CompletedAt: got %v, want %v", got.CompletedAt, sess.CompletedAt)
			}
		})
	}
}

func TestCreateOverwritesPrior(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			first, _ := store.Create("1", t0)
			first.Answers = []Answer{{Option: "Yes", Remark: "old"}}
			first.State = AwaitingAnswer{Index: 1}
			if err := store.Put(first); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			second, err := store.Create("1", t0.Add(time.Hour))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			got, _ := store.Get("1")
			if got.ID != second.ID {
				t.Errorf("ID: got %s, want %s", got.ID, second.ID)
			}
			if len(got.Answers) != 0 || got.CurrentIndex() != 0 {
				t.Errorf("reset session kept progress: answers=%d index=%d", len(got.Answers), got.CurrentIndex())
			}
		})
	}
}

func TestPutReplacesCreatedAt(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create("1", t0)
			sess.CreatedAt = t0.Add(-48 * time.Hour)
			if err := store.Put(sess); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, _ := store.Get("1")
			if !got.CreatedAt.Equal(sess.CreatedAt) {
				t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, sess.CreatedAt)
			}

			removed, err := store.RemoveCreatedBefore(t0.Add(-time.Hour))
			if err != nil {
				t.Fatalf("RemoveCreatedBefore failed: %v", err)
			}
			if len(removed) != 1 || removed[0] != "1" {
				t.Errorf("removed: got %v, want [1]", removed)
			}
		})
	}
}

func TestReturnedSessionIsDetached(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create("3", t0)
			sess.Answers = append(sess.Answers, Answer{Option: "Yes"})

			got, _ := store.Get("3")
			if len(got.Answers) != 0 {
				t.Errorf("store observed caller mutation: %+v", got.Answers)
			}
		})
	}
}

func TestRemoveAndSweep(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			_, _ = store.Create("old", t0)
			_, _ = store.Create("new", t0.Add(2*time.Hour))
			_, _ = store.Create("gone", t0)

			if err := store.Remove("gone"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if err := store.Remove("never-existed"); err != nil {
				t.Errorf("Remove(absent): got %v, want nil", err)
			}

			removed, err := store.RemoveCreatedBefore(t0.Add(time.Hour))
			if err != nil {
				t.Fatalf("RemoveCreatedBefore failed: %v", err)
			}
			if len(removed) != 1 || removed[0] != "old" {
				t.Errorf("removed: got %v, want [old]", removed)
			}

			list, err := store.List(0)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 1 || list[0].UserID != "new" {
				t.Errorf("List: got %+v, want only 'new'", list)
			}
		})
	}
}

func TestListOrderAndLimit(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				s, _ := store.Create(fmt.Sprintf("u%d", i), t0)
				s.UpdatedAt = t0.Add(time.Duration(i) * time.Minute)
				s.Answers = make([]Answer, i)
				s.State = AwaitingAnswer{Index: i}
				if err := store.Put(s); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
			}

			list, err := store.List(2)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("List(2): got %d entries", len(list))
			}
			if list[0].UserID != "u2" || list[0].Answered != 2 {
				t.Errorf("first: got %+v, want u2 with 2 answers", list[0])
			}
		})
	}
}

func TestPutRejectsNil(t *testing.T) {
	for name, store := range newStores(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			if err := store.Put(nil); err != ErrNilSession {
				t.Errorf("Put(nil): got %v, want ErrNilSession", err)
			}
		})
	}
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	store := NewMemoryStore(Options{})
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			s, err := store.Create(id, t0)
			if err != nil {
				t.Errorf("Create(%s): %v", id, err)
				return
			}
			s.DisplayName = id
			_ = store.Put(s)
		}(i)
	}
	wg.Wait()

	if store.Len() != n {
		t.Fatalf("Len: got %d, want %d", store.Len(), n)
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("user-%d", i)
		s, _ := store.Get(id)
		if s == nil || s.UserID != id || s.DisplayName != id || s.CurrentIndex() != 0 {
			t.Errorf("session %s corrupted: %+v", id, s)
		}
	}
}

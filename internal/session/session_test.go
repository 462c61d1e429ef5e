package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/pkg/hexcolor"
)

func newTestStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	st, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

func TestNewSessionDefaults(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	s := st.Create()

	if s.ID == "" {
		t.Fatal("expected a session ID")
	}
	if d := s.Draft(); d != grid.DefaultSpec {
		t.Fatalf("expected default draft 4x4, got %s", d)
	}
	if _, err := s.Image(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if _, err := s.Analysis(); !errors.Is(err, ErrNotAnalyzed) {
		t.Fatalf("expected ErrNotAnalyzed, got %v", err)
	}
	if _, err := s.Analyze(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage from Analyze, got %v", err)
	}
}

func TestAnalyzeCommitsDraft(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	s := st.Create()
	s.SetImage(grid.Uniform(10, 10, hexcolor.RGB{R: 100, G: 150, B: 200}), "png")

	if err := s.SetDraft(grid.Spec{Cols: 2, Rows: 2}); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}
	a, err := s.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Spec != (grid.Spec{Cols: 2, Rows: 2}) || a.Generation != 1 {
		t.Fatalf("unexpected analysis %+v", a)
	}

	// Changing the draft afterwards leaves the committed grid alone.
	if err := s.SetDraft(grid.Spec{Cols: 5, Rows: 5}); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}
	got, err := s.Analysis()
	if err != nil {
		t.Fatalf("Analysis: %v", err)
	}
	if got.Grid.Cols() != 2 || got.Grid.Rows() != 2 {
		t.Fatalf("committed grid changed with draft: %s", got.Spec)
	}
	st2 := s.State()
	if st2.Draft != (grid.Spec{Cols: 5, Rows: 5}) || st2.Committed == nil || *st2.Committed != a.Spec {
		t.Fatalf("unexpected state %+v", st2)
	}
}

func TestFailedAnalyzeKeepsPreviousResult(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	s := st.Create()
	s.SetImage(grid.Uniform(10, 10, hexcolor.RGB{}), "png")

	first, err := s.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// 20 columns on a 10px image is degenerate.
	if err := s.SetDraft(grid.Spec{Cols: 20, Rows: 2}); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}
	if _, err := s.Analyze(); !errors.Is(err, grid.ErrDegenerateGrid) {
		t.Fatalf("expected ErrDegenerateGrid, got %v", err)
	}

	got, err := s.Analysis()
	if err != nil {
		t.Fatalf("Analysis: %v", err)
	}
	if got != first {
		t.Fatal("failed analyze replaced the previous analysis")
	}
	if c := s.State().Committed; c == nil || *c != grid.DefaultSpec {
		t.Fatalf("committed spec changed after failure: %v", c)
	}
}

func TestSetDraftValidates(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	s := st.Create()

	if err := s.SetDraft(grid.Spec{Cols: 51, Rows: 1}); !errors.Is(err, grid.ErrSpecOutOfRange) {
		t.Fatalf("expected ErrSpecOutOfRange, got %v", err)
	}
	if s.Draft() != grid.DefaultSpec {
		t.Fatal("invalid draft was stored")
	}
}

func TestReuploadKeepsAnalysisImage(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	s := st.Create()
	first := grid.Uniform(8, 8, hexcolor.RGB{R: 1})
	s.SetImage(first, "png")
	if _, err := s.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	s.SetImage(grid.Uniform(4, 4, hexcolor.RGB{G: 1}), "jpeg")

	a, err := s.Analysis()
	if err != nil {
		t.Fatalf("Analysis: %v", err)
	}
	if a.Image != first {
		t.Fatal("analysis lost the image it was sampled from")
	}
	if st := s.State(); st.ImageWidth != 4 || st.ImageFormat != "jpeg" {
		t.Fatalf("unexpected state after re-upload: %+v", st)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	a := st.Create()
	b := st.Create()

	a.SetImage(grid.Uniform(4, 4, hexcolor.RGB{}), "png")
	if err := a.SetDraft(grid.Spec{Cols: 2, Rows: 2}); err != nil {
		t.Fatalf("SetDraft: %v", err)
	}

	if _, err := b.Image(); !errors.Is(err, ErrNoImage) {
		t.Fatal("image leaked across sessions")
	}
	if b.Draft() != grid.DefaultSpec {
		t.Fatal("draft leaked across sessions")
	}
	if a.ID == b.ID {
		t.Fatal("duplicate session IDs")
	}
}

func TestConcurrentAnalyze(t *testing.T) {
	st := newTestStore(t, StoreConfig{})
	s := st.Create()
	s.SetImage(grid.Uniform(50, 50, hexcolor.RGB{B: 9}), "png")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Analyze(); err != nil {
				t.Errorf("Analyze: %v", err)
			}
		}()
	}
	wg.Wait()

	if g := s.State().Generation; g != 8 {
		t.Fatalf("expected generation 8, got %d", g)
	}
}

func TestStoreGetDelete(t *testing.T) {
	var evicted []string
	st := newTestStore(t, StoreConfig{OnEvict: func(id string) { evicted = append(evicted, id) }})
	s := st.Create()

	got, err := st.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get: %v", err)
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", st.Len())
	}
	if !st.Delete(s.ID) {
		t.Fatal("Delete reported missing session")
	}
	if _, err := st.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(evicted) != 1 || evicted[0] != s.ID {
		t.Fatalf("expected eviction hook for %s, got %v", s.ID, evicted)
	}
}

func TestStoreCapacity(t *testing.T) {
	st := newTestStore(t, StoreConfig{MaxSessions: 2})
	first := st.Create()
	st.Create()
	st.Create()

	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.Len())
	}
	if _, err := st.Get(first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected oldest session to be evicted")
	}
}

func TestStoreTTL(t *testing.T) {
	st := newTestStore(t, StoreConfig{TTL: 50 * time.Millisecond})
	s := st.Create()

	time.Sleep(120 * time.Millisecond)
	if _, err := st.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected session to expire, got %v", err)
	}
}

func TestNewStoreRejectsBadDefault(t *testing.T) {
	if _, err := NewStore(StoreConfig{DefaultSpec: grid.Spec{Cols: 60, Rows: 1}}); err == nil {
		t.Fatal("expected error for out-of-range default grid")
	}
}

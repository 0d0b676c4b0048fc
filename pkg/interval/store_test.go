package interval

import (
	"errors"
	"testing"

	"github.com/quirinpa/sem/pkg/model"
)

func TestInsertAndIntersectWindow(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, 200)
	s.Insert(1, 150, 300)
	s.Insert(2, 400, 500)

	got := s.Intersect(120, 350)
	if len(got) != 2 {
		t.Fatalf("Intersect: got %d intervals, want 2", len(got))
	}
	for _, iv := range got {
		if iv.Owner == 2 {
			t.Fatal("interval outside window matched")
		}
	}
}

func TestIntersectHalfOpenBoundary(t *testing.T) {
	s := NewStore()
	// Starts exactly at the window's end: excluded by [min,max).
	s.Insert(0, 300, 400)
	if got := s.Intersect(100, 300); len(got) != 0 {
		t.Fatalf("interval starting at win_max matched: %v", got)
	}
	// Ends exactly at the window's start: max >= win_min, included.
	s2 := NewStore()
	s2.Insert(0, 100, 200)
	if got := s2.Intersect(200, 300); len(got) != 1 {
		t.Fatalf("interval ending at win_min not matched: %v", got)
	}
}

func TestIntersectPointQuery(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, 200)
	s.Insert(1, 200, 300)
	s.Insert(2, 50, 100)

	// Point queries match min <= t <= max.
	got := s.Intersect(200, 200)
	if len(got) != 2 {
		t.Fatalf("point query at 200: got %d intervals, want 2", len(got))
	}
	got = s.Intersect(100, 100)
	if len(got) != 2 {
		t.Fatalf("point query at 100: got %d intervals, want 2", len(got))
	}
}

func TestIntersectSentinels(t *testing.T) {
	s := NewStore()
	s.Insert(0, model.TimeNegInf, 200)
	s.Insert(1, 100, model.TimeInf)

	got := s.Intersect(150, 160)
	if len(got) != 2 {
		t.Fatalf("sentinel intervals must intersect every overlapping finite window, got %d", len(got))
	}
}

func TestCloseOpen(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, model.TimeInf)
	if !s.HasOpen(0) {
		t.Fatal("HasOpen after open insert: false")
	}

	if err := s.CloseOpen(0, 250); err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	if s.HasOpen(0) {
		t.Fatal("HasOpen after close: true")
	}

	ivs := s.OwnerIntervals(0)
	if len(ivs) != 1 || ivs[0].Min != 100 || ivs[0].Max != 250 {
		t.Fatalf("after CloseOpen: %v", ivs)
	}
}

func TestCloseOpenWithoutOpenFails(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, 200)
	err := s.CloseOpen(0, 300)
	if !errors.Is(err, ErrNoOpenInterval) {
		t.Fatalf("CloseOpen: got %v, want ErrNoOpenInterval", err)
	}
}

func TestSecondOpenIntervalPanics(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, model.TimeInf)
	defer func() {
		if recover() == nil {
			t.Fatal("second open insert did not panic")
		}
	}()
	s.Insert(0, 200, model.TimeInf)
}

func TestOpenIntervalPerOwnerIndependent(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, model.TimeInf)
	s.Insert(1, 100, model.TimeInf)
	if err := s.CloseOpen(1, 300); err != nil {
		t.Fatalf("CloseOpen(1): %v", err)
	}
	if !s.HasOpen(0) {
		t.Fatal("closing owner 1 disturbed owner 0")
	}
}

func TestReopenAfterClose(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, model.TimeInf)
	if err := s.CloseOpen(0, 200); err != nil {
		t.Fatalf("CloseOpen: %v", err)
	}
	s.Insert(0, 300, model.TimeInf)
	if err := s.CloseOpen(0, 400); err != nil {
		t.Fatalf("second CloseOpen: %v", err)
	}
	ivs := s.OwnerIntervals(0)
	if len(ivs) != 2 {
		t.Fatalf("OwnerIntervals: got %d, want 2", len(ivs))
	}
	if ivs[0].Max != 200 || ivs[1].Min != 300 {
		t.Fatalf("intervals out of order: %v", ivs)
	}
}

func TestAllAndLen(t *testing.T) {
	s := NewStore()
	s.Insert(0, 100, 200)
	s.Insert(1, 50, model.TimeInf)
	if s.Len() != 2 {
		t.Fatalf("Len: got %d", s.Len())
	}
	all := s.All()
	all[0].Owner = 99
	if s.All()[0].Owner == 99 {
		t.Fatal("All must return a copy")
	}
}

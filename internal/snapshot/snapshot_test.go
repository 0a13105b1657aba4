package snapshot

import "testing"

func TestWithSnapshotCreatesOnMiss(t *testing.T) {
    r := NewRing(4)
    touched := false
    r.WithSnapshot(1, func(s *Snapshot) {
        touched = true
        if s.Frame != 1 {
            t.Fatalf("got frame %d, want 1", s.Frame)
        }
        s.State = []byte{1, 2, 3}
    })
    if !touched {
        t.Fatal("fn was not called")
    }
    got, ok := r.Get(1)
    if !ok {
        t.Fatal("expected frame 1 to exist")
    }
    if string(got.State) != string([]byte{1, 2, 3}) {
        t.Fatalf("got state %v", got.State)
    }
}

func TestWithSnapshotReusesExisting(t *testing.T) {
    r := NewRing(4)
    r.WithSnapshot(1, func(s *Snapshot) { s.Inputs[0] = [4]byte{9, 0, 0, 0} })
    r.WithSnapshot(1, func(s *Snapshot) {
        if s.Inputs[0] != [4]byte{9, 0, 0, 0} {
            t.Fatalf("expected prior mutation to persist, got %v", s.Inputs[0])
        }
    })
    if r.Len() != 1 {
        t.Fatalf("expected 1 frame, got %d", r.Len())
    }
}

func TestRingEvictsOldestBeyondCapacity(t *testing.T) {
    r := NewRing(3)
    for f := uint32(1); f <= 5; f++ {
        r.WithSnapshot(f, func(s *Snapshot) {})
    }
    if r.Len() != 3 {
        t.Fatalf("expected ring capped at 3, got %d", r.Len())
    }
    if r.Has(1) || r.Has(2) {
        t.Fatalf("expected frames 1,2 evicted")
    }
    if !r.Has(3) || !r.Has(4) || !r.Has(5) {
        t.Fatalf("expected frames 3,4,5 retained")
    }
}

func TestPruneBefore(t *testing.T) {
    r := NewRing(10)
    for f := uint32(1); f <= 5; f++ {
        r.WithSnapshot(f, func(s *Snapshot) {})
    }
    r.PruneBefore(3)
    if r.Has(1) || r.Has(2) {
        t.Fatalf("expected frames before 3 pruned")
    }
    if !r.Has(3) || !r.Has(4) || !r.Has(5) {
        t.Fatalf("expected frames 3,4,5 retained")
    }
    oldest, ok := r.OldestFrame()
    if !ok || oldest != 3 {
        t.Fatalf("got oldest=%d ok=%v, want 3,true", oldest, ok)
    }
}

func TestGetMissingReturnsFalse(t *testing.T) {
    r := NewRing(4)
    if _, ok := r.Get(99); ok {
        t.Fatalf("expected miss for untouched frame")
    }
}

func TestCloneIsIndependent(t *testing.T) {
    r := NewRing(4)
    r.WithSnapshot(1, func(s *Snapshot) { s.State = []byte{1} })
    got, _ := r.Get(1)
    got.State[0] = 99
    got2, _ := r.Get(1)
    if got2.State[0] != 1 {
        t.Fatalf("Get should return an independent copy")
    }
}

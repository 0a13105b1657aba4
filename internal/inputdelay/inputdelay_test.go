package inputdelay

import "testing"

func TestAverageRTTEmpty(t *testing.T) {
    c := New(30)
    if got := c.AverageRTT(); got != 0 {
        t.Fatalf("got %v, want 0", got)
    }
}

func TestAverageRTTWindow(t *testing.T) {
    c := New(30)
    for _, v := range []float64{100, 100, 100, 100, 100} {
        c.AddSample(v)
    }
    if got := c.AverageRTT(); got != 100 {
        t.Fatalf("got %v, want 100", got)
    }
}

func TestAverageRTTSlidesWindow(t *testing.T) {
    c := New(30)
    for i := 0; i < WindowSize; i++ {
        c.AddSample(100)
    }
    // Push WindowSize more samples of 5ms, should fully replace the 100s.
    for i := 0; i < WindowSize; i++ {
        c.AddSample(5)
    }
    if got := c.AverageRTT(); got != 5 {
        t.Fatalf("got %v, want 5 after window slid", got)
    }
}

func TestDelayFramesAt30Hz(t *testing.T) {
    c := New(30)
    // avg RTT 66ms -> latency 33ms -> msPerTick ~33.33ms -> ceil(33/33.33)=1
    for i := 0; i < WindowSize; i++ {
        c.AddSample(66)
    }
    if got := c.DelayFrames(); got != 1 {
        t.Fatalf("got %d, want 1", got)
    }
}

func TestDelayFramesFloorsAtOneWithNoSamples(t *testing.T) {
    c := New(30)
    if got := c.DelayFrames(); got != 1 {
        t.Fatalf("got %d, want 1 (floor) with no samples recorded", got)
    }
}

func TestDelayFramesFloorsAtOneWithLowLatency(t *testing.T) {
    c := New(30)
    for i := 0; i < WindowSize; i++ {
        c.AddSample(1) // near-zero but valid RTT
    }
    if got := c.DelayFrames(); got != 1 {
        t.Fatalf("got %d, want 1 (floor)", got)
    }
}

func TestDelayFramesHighLatency(t *testing.T) {
    c := New(60)
    for i := 0; i < WindowSize; i++ {
        c.AddSample(200) // latency 100ms, ms_per_tick ~16.67 -> ceil(6)=6
    }
    if got := c.DelayFrames(); got != 6 {
        t.Fatalf("got %d, want 6", got)
    }
}

func TestResetClearsSamples(t *testing.T) {
    c := New(30)
    c.AddSample(500)
    c.Reset()
    if got := c.AverageRTT(); got != 0 {
        t.Fatalf("got %v, want 0 after reset", got)
    }
}

func TestNegativeSampleDiscarded(t *testing.T) {
    c := New(30)
    c.AddSample(-50)
    if got := c.AverageRTT(); got != 0 {
        t.Fatalf("got %v, want 0 since an out-of-range sample should be discarded, not recorded", got)
    }
    // A discarded sample must not occupy a window slot: a subsequent valid
    // sample should not be diluted by a phantom zero entry.
    c.AddSample(100)
    if got := c.AverageRTT(); got != 100 {
        t.Fatalf("got %v, want 100 (discarded sample must not occupy a window slot)", got)
    }
}

func TestAddSampleDiscardsOutOfRangeHigh(t *testing.T) {
    c := New(30)
    c.AddSample(50000)
    if got := c.AverageRTT(); got != 0 {
        t.Fatalf("got %v, want 0 for a sample above the valid band", got)
    }
}

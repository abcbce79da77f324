package ppg

import "testing"

func TestSmoother_FirstSampleSeeds(t *testing.T) {
	s := NewSmoother(DefaultSmootherConfig())

	got := s.Update(72, 0)
	if got != 72 {
		t.Fatalf("Expected first sample to seed exactly, got %d", got)
	}
	if s.Value() != 72 {
		t.Errorf("Expected value 72, got %d", s.Value())
	}
}

func TestSmoother_AlphaDecaysWithElapsedTime(t *testing.T) {
	cfg := DefaultSmootherConfig()

	early := NewSmoother(cfg)
	early.Update(60, 0)
	earlyMoved := early.Update(100, 0) // alpha = alphaMax

	late := NewSmoother(cfg)
	late.Update(60, 0)
	lateMoved := late.Update(100, cfg.TimeLimit) // alpha = alphaMin

	if earlyMoved != 80 {
		t.Errorf("Expected early update to move halfway (80), got %d", earlyMoved)
	}
	if lateMoved != 64 {
		t.Errorf("Expected late update to move by alphaMin (64), got %d", lateMoved)
	}
	if lateMoved >= earlyMoved {
		t.Errorf("Expected late alpha to move less than early alpha: %d vs %d", lateMoved, earlyMoved)
	}
}

func TestSmoother_ConvergesMonotonically(t *testing.T) {
	cfg := DefaultSmootherConfig()
	s := NewSmoother(cfg)
	s.Update(60, 0)

	prev := 60
	for i := 0; i < 50; i++ {
		v := s.Update(100, cfg.TimeLimit)
		if v < prev {
			t.Fatalf("Step %d: smoothed value regressed from %d to %d", i, prev, v)
		}
		if v > 100 {
			t.Fatalf("Step %d: smoothed value overshot target: %d", i, v)
		}
		prev = v
	}
	if prev < 98 {
		t.Errorf("Expected convergence near 100, got %d", prev)
	}
}

func TestSmoother_FinalBPMUsesTrailingWindow(t *testing.T) {
	cfg := DefaultSmootherConfig()
	cfg.AlphaMin = 1 // pass-through so the history is exact
	cfg.AlphaMax = 1
	s := NewSmoother(cfg)

	// early transients, then a stable stretch longer than the window
	for i := 0; i < 10; i++ {
		s.Update(100, 0)
	}
	for i := 0; i < cfg.FinalWindow; i++ {
		s.Update(60, 0)
	}

	if got := s.FinalBPM(); got != 60 {
		t.Errorf("Expected final BPM 60 from trailing window, got %d", got)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(DefaultSmootherConfig())
	s.Update(72, 0)
	s.Reset()

	if s.Value() != 0 {
		t.Errorf("Expected value 0 after reset, got %d", s.Value())
	}
	if s.FinalBPM() != 0 {
		t.Errorf("Expected final BPM 0 after reset, got %d", s.FinalBPM())
	}
	// first update after reset seeds again
	if got := s.Update(55, 30); got != 55 {
		t.Errorf("Expected re-seed to 55, got %d", got)
	}
}

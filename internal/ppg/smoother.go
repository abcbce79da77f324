package ppg

import "math"

// SmootherConfig tunes the BPM display smoothing.
type SmootherConfig struct {
	AlphaMax    float64 // blend weight at session start (fast convergence)
	AlphaMin    float64 // blend weight at the time limit (stability)
	TimeLimit   float64 // seconds over which alpha decays
	HistorySize int     // retained rounded results
	FinalWindow int     // trailing results averaged by FinalBPM
}

func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		AlphaMax:    0.5,
		AlphaMin:    0.1,
		TimeLimit:   60,
		HistorySize: 120,
		FinalWindow: 20,
	}
}

// Smoother applies a time-decaying exponential moving average to raw per-beat
// BPM candidates. Early in a session the alpha is high so the display converges
// quickly; late in a session it is low to reject noise. Every rounded output is
// kept in a bounded history whose trailing window feeds the final-BPM statistic,
// discarding early-session transients.
type Smoother struct {
	cfg     SmootherConfig
	value   float64
	seeded  bool
	history []int
}

func NewSmoother(cfg SmootherConfig) *Smoother {
	return &Smoother{cfg: cfg, history: make([]int, 0, cfg.HistorySize)}
}

// Update blends a raw BPM candidate at the given effective elapsed time and
// returns the rounded smoothed value. The first sample seeds the average
// directly.
func (s *Smoother) Update(bpm, elapsed float64) int {
	if !s.seeded {
		s.value = bpm
		s.seeded = true
	} else {
		s.value += (bpm - s.value) * s.alpha(elapsed)
	}

	rounded := int(math.Round(s.value))
	s.history = append(s.history, rounded)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[1:]
	}
	return rounded
}

func (s *Smoother) alpha(elapsed float64) float64 {
	progress := elapsed / s.cfg.TimeLimit
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	return s.cfg.AlphaMax - (s.cfg.AlphaMax-s.cfg.AlphaMin)*progress
}

// Value returns the current smoothed BPM, rounded, or 0 before any update.
func (s *Smoother) Value() int {
	if !s.seeded {
		return 0
	}
	return int(math.Round(s.value))
}

// FinalBPM is the mean of the trailing FinalWindow results, rounded, or 0 when
// the history is empty.
func (s *Smoother) FinalBPM() int {
	if len(s.history) == 0 {
		return 0
	}
	window := s.history
	if len(window) > s.cfg.FinalWindow {
		window = window[len(window)-s.cfg.FinalWindow:]
	}
	sum := 0
	for _, v := range window {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(window))))
}

// History returns a copy of the rounded result history, oldest first.
func (s *Smoother) History() []int {
	out := make([]int, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears the average and the result history.
func (s *Smoother) Reset() {
	s.value = 0
	s.seeded = false
	s.history = s.history[:0]
}

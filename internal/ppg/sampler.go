package ppg

import (
	"github.com/kdimtricp/pulsecam/internal/hardware"
)

// Sample is the per-frame optical measurement handed to the SignalProcessor.
// Timestamp is seconds since the first frame, derived from the frame counter
// rather than wall-clock so dropped frames cannot skew interval math.
type Sample struct {
	Value     float64
	Timestamp float64
	Valid     bool
}

// Warning classifies why a frame failed finger presence, for UI feedback.
type Warning string

const (
	WarningNone      Warning = ""
	WarningTooDark   Warning = "too_dark"
	WarningTooBright Warning = "too_bright"
	WarningNoFinger  Warning = "not_covering"
)

// SamplerConfig holds the presence thresholds. The defaults are empirically
// tuned; do not derive new values from observed behavior.
type SamplerConfig struct {
	WindowSize        int     // side of the sampled center square, px
	PixelStep         int     // subsample every Nth pixel on each axis
	RedDominanceRatio float64 // presence needs R > (G+B)*ratio
	BrightnessMin     float64 // presence needs BrightnessMin < avgR
	BrightnessMax     float64 // ... < BrightnessMax
	StableFrames      int     // consecutive present frames before presence is stable
	SampleRate        float64 // assumed camera frame rate, Hz
}

func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		WindowSize:        60,
		PixelStep:         4,
		RedDominanceRatio: 0.8,
		BrightnessMin:     30,
		BrightnessMax:     250,
		StableFrames:      15,
		SampleRate:        30,
	}
}

// Sampler extracts a scalar intensity and a finger-presence verdict from raw
// frames. It keeps only a frame counter and the presence run length, so it is
// safe to run inline on the camera delivery goroutine.
type Sampler struct {
	cfg        SamplerConfig
	frameCount int
	presentRun int
}

func NewSampler(cfg SamplerConfig) *Sampler {
	return &Sampler{cfg: cfg}
}

// Process samples the frame and returns the intensity sample plus a warning
// classification for frames that fail presence.
func (s *Sampler) Process(f hardware.Frame) (Sample, Warning) {
	avgR, avgG, avgB := s.average(f)

	present := s.fingerPresent(avgR, avgG, avgB)
	if present {
		s.presentRun++
	} else {
		s.presentRun = 0
	}
	stable := s.presentRun > s.cfg.StableFrames

	sample := Sample{
		Value:     avgR,
		Timestamp: float64(s.frameCount) / s.cfg.SampleRate,
		Valid:     stable,
	}
	s.frameCount++

	return sample, classifyWarning(avgR, present, s.cfg)
}

// Reset clears the frame counter and presence run, for a new session.
func (s *Sampler) Reset() {
	s.frameCount = 0
	s.presentRun = 0
}

func (s *Sampler) fingerPresent(r, g, b float64) bool {
	redDominant := r > (g+b)*s.cfg.RedDominanceRatio
	inBand := r > s.cfg.BrightnessMin && r < s.cfg.BrightnessMax
	return redDominant && inBand
}

// average computes mean R, G, B over the centered sampling window.
func (s *Sampler) average(f hardware.Frame) (float64, float64, float64) {
	half := s.cfg.WindowSize / 2
	cx, cy := f.Width/2, f.Height/2

	x0, x1 := clamp(cx-half, 0, f.Width), clamp(cx+half, 0, f.Width)
	y0, y1 := clamp(cy-half, 0, f.Height), clamp(cy+half, 0, f.Height)

	var sumR, sumG, sumB float64
	count := 0
	for y := y0; y < y1; y += s.cfg.PixelStep {
		row := y * f.BytesPerRow
		for x := x0; x < x1; x += s.cfg.PixelStep {
			idx := row + x*4
			if idx+2 >= len(f.Pixels) {
				continue
			}
			sumR += float64(f.Pixels[idx])
			sumG += float64(f.Pixels[idx+1])
			sumB += float64(f.Pixels[idx+2])
			count++
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	n := float64(count)
	return sumR / n, sumG / n, sumB / n
}

// classifyWarning is a pure function of the frame averages; it must not touch
// processor state.
func classifyWarning(avgR float64, present bool, cfg SamplerConfig) Warning {
	if present {
		return WarningNone
	}
	switch {
	case avgR <= cfg.BrightnessMin:
		return WarningTooDark
	case avgR >= cfg.BrightnessMax:
		return WarningTooBright
	default:
		return WarningNoFinger
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

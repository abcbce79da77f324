package ppg

import (
	"math"
	"testing"
)

// feedSine runs a clean sinusoidal pulse at the given BPM through the
// processor for the given duration, sampled at rate Hz.
func feedSine(p *Processor, bpm, rate, seconds float64, valid bool) {
	n := int(seconds * rate)
	for i := 0; i < n; i++ {
		ts := float64(i) / rate
		value := 150 + 40*math.Sin(2*math.Pi*bpm/60*ts)
		p.ProcessSample(value, ts, valid)
	}
}

func TestProcessor_DetectsSixtyBPM(t *testing.T) {
	p := NewProcessor(DefaultProcessorConfig())
	feedSine(p, 60, 30, 20, true)

	bpm, ok := p.CurrentBPM()
	if !ok {
		t.Fatal("Expected a BPM estimate after 20s of clean signal")
	}
	if bpm < 58 || bpm > 62 {
		t.Errorf("Expected BPM within 60±2, got %d", bpm)
	}

	m := p.HRVMetrics()
	if m == nil {
		t.Fatal("Expected HRV metrics after 20s of clean signal")
	}
	if math.Abs(m.MeanRR-1000) > 5 {
		t.Errorf("Expected meanRR within 1000±5ms, got %f", m.MeanRR)
	}
}

func TestProcessor_RefractoryRejectsImplausibleIntervals(t *testing.T) {
	p := NewProcessor(DefaultProcessorConfig())
	// 240 BPM is above the physiological bound; its 250ms cycles must never
	// be stored as intervals
	feedSine(p, 240, 60, 10, true)

	for _, rr := range p.Intervals() {
		if rr < p.cfg.MinIntervalMs {
			t.Errorf("Interval %fms below the refractory bound", rr)
		}
	}
}

func TestProcessor_InvalidSamplesBypassDetection(t *testing.T) {
	p := NewProcessor(DefaultProcessorConfig())
	feedSine(p, 60, 30, 20, false)

	if _, ok := p.CurrentBPM(); ok {
		t.Error("Expected no BPM from invalid samples")
	}
	if len(p.Intervals()) != 0 {
		t.Errorf("Expected empty interval history, got %d entries", len(p.Intervals()))
	}
	// the filtered value is still produced for waveform rendering
	if len(p.Waveform()) == 0 {
		t.Error("Expected waveform samples from invalid input")
	}
}

func TestProcessor_WaveformBounded(t *testing.T) {
	cfg := DefaultProcessorConfig()
	p := NewProcessor(cfg)
	feedSine(p, 60, 30, 30, true)

	if got := len(p.Waveform()); got != cfg.WaveformSize {
		t.Errorf("Expected waveform capped at %d samples, got %d", cfg.WaveformSize, got)
	}
}

func TestProcessor_HistoryBounded(t *testing.T) {
	cfg := DefaultProcessorConfig()
	cfg.HistorySize = 5
	p := NewProcessor(cfg)
	feedSine(p, 60, 30, 30, true)

	if got := len(p.Intervals()); got > 5 {
		t.Errorf("Expected interval history capped at 5, got %d", got)
	}
}

func TestProcessor_Reset(t *testing.T) {
	p := NewProcessor(DefaultProcessorConfig())
	feedSine(p, 60, 30, 20, true)

	p.Reset()

	if _, ok := p.CurrentBPM(); ok {
		t.Error("Expected no BPM after reset")
	}
	if p.HRVMetrics() != nil {
		t.Error("Expected nil HRV metrics after reset")
	}
	if p.SignalQuality() != 0 {
		t.Errorf("Expected zero quality after reset, got %f", p.SignalQuality())
	}
}

func TestProcessor_SignalQualityRange(t *testing.T) {
	p := NewProcessor(DefaultProcessorConfig())
	if q := p.SignalQuality(); q != 0 {
		t.Errorf("Expected zero quality with no beats, got %f", q)
	}

	feedSine(p, 60, 30, 20, true)

	q := p.SignalQuality()
	if q < 0 || q > 1 {
		t.Fatalf("Quality out of range: %f", q)
	}
	if q < 0.5 {
		t.Errorf("Expected high quality for a clean signal, got %f", q)
	}
}

package ppg

import "math"

// ProcessorConfig tunes the beat detection pipeline.
type ProcessorConfig struct {
	BaselineWeight int     // DC estimate weight: mean += (v-mean)/w
	SmoothWindow   int     // short moving average over the AC component
	MinIntervalMs  float64 // refractory bound, rejects >200 BPM double counts
	MaxIntervalMs  float64 // intervals above this restart the beat timer
	MinAmplitude   float64 // cycle swing below this is noise, not a beat
	ThresholdRatio float64 // fraction of the tracked amplitude a cycle must reach
	HistorySize    int     // retained RR intervals, oldest evicted
	WaveformSize   int     // retained filtered samples for display
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		BaselineWeight: 16,
		SmoothWindow:   3,
		MinIntervalMs:  300,
		MaxIntervalMs:  2000,
		MinAmplitude:   1.0,
		ThresholdRatio: 0.3,
		HistorySize:    300,
		WaveformSize:   100,
	}
}

// movingAverage keeps an exponentially weighted running mean.
type movingAverage struct {
	mean   float64
	weight float64
	primed bool
}

func (m *movingAverage) add(v float64) {
	if !m.primed {
		m.mean = v
		m.primed = true
		return
	}
	m.mean += (v - m.mean) / m.weight
}

func (m *movingAverage) reset() {
	m.mean = 0
	m.primed = false
}

// boxcar is a short moving average over the last few AC samples.
type boxcar struct {
	buf []float64
	idx int
	n   int
}

func newBoxcar(size int) *boxcar {
	return &boxcar{buf: make([]float64, size)}
}

func (b *boxcar) add(v float64) float64 {
	b.buf[b.idx] = v
	b.idx = (b.idx + 1) % len(b.buf)
	if b.n < len(b.buf) {
		b.n++
	}
	sum := 0.0
	for i := 0; i < b.n; i++ {
		sum += b.buf[i]
	}
	return sum / float64(b.n)
}

func (b *boxcar) reset() {
	for i := range b.buf {
		b.buf[i] = 0
	}
	b.idx = 0
	b.n = 0
}

// Processor turns a timestamped intensity stream into beat detections and HRV
// statistics. It is not safe for concurrent use; the session controller owns
// it and serializes ProcessSample, Reset and the metric reads on its own
// goroutine.
type Processor struct {
	cfg ProcessorConfig

	baseline movingAverage
	smooth   *boxcar

	prev   float64
	rising bool
	cycMax float64
	cycMin float64
	amp    movingAverage

	lastBeatTS float64 // seconds; negative means no beat yet
	lastRRMs   float64

	intervals []float64
	waveform  []float64
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		cfg:        cfg,
		smooth:     newBoxcar(cfg.SmoothWindow),
		intervals:  make([]float64, 0, cfg.HistorySize),
		waveform:   make([]float64, 0, cfg.WaveformSize),
		lastBeatTS: -1,
	}
	p.baseline.weight = float64(cfg.BaselineWeight)
	p.amp.weight = 4
	return p
}

// ProcessSample filters one intensity sample and, when valid, feeds it to beat
// detection. The filtered value is always returned for waveform rendering.
// Returns true when this sample completed an accepted beat.
func (p *Processor) ProcessSample(value, timestamp float64, valid bool) (float64, bool) {
	p.baseline.add(value)
	filtered := p.smooth.add(value - p.baseline.mean)

	p.waveform = append(p.waveform, filtered)
	if len(p.waveform) > p.cfg.WaveformSize {
		p.waveform = p.waveform[1:]
	}

	if !valid {
		return filtered, false
	}

	beat := p.detect(filtered, timestamp)
	return filtered, beat
}

// detect looks for positive zero crossings of the band-limited signal, gated
// by the swing of the just-finished cycle against a slowly adapting amplitude
// estimate, then enforces the refractory bounds on the resulting interval.
func (p *Processor) detect(ac, ts float64) bool {
	beat := false

	if p.prev < 0 && ac >= 0 {
		delta := p.cycMax - p.cycMin
		threshold := p.amp.mean * p.cfg.ThresholdRatio
		if delta > p.cfg.MinAmplitude && delta >= threshold {
			p.amp.add(delta)
			beat = p.acceptCrossing(ts)
		}
		p.rising = true
		p.cycMax = 0
	}
	if p.prev > 0 && ac <= 0 {
		p.rising = false
		p.cycMin = 0
	}

	if p.rising {
		if ac > p.cycMax {
			p.cycMax = ac
		}
	} else {
		if ac < p.cycMin {
			p.cycMin = ac
		}
	}
	p.prev = ac

	return beat
}

func (p *Processor) acceptCrossing(ts float64) bool {
	if p.lastBeatTS < 0 {
		p.lastBeatTS = ts
		return false
	}

	intervalMs := (ts - p.lastBeatTS) * 1000
	switch {
	case intervalMs < p.cfg.MinIntervalMs:
		// inside the refractory window: noise, keep the previous beat time
		return false
	case intervalMs > p.cfg.MaxIntervalMs:
		// too long to be consecutive beats, restart the timer
		p.lastBeatTS = ts
		return false
	}

	p.lastBeatTS = ts
	p.lastRRMs = intervalMs
	p.intervals = append(p.intervals, intervalMs)
	if len(p.intervals) > p.cfg.HistorySize {
		p.intervals = p.intervals[1:]
	}
	return true
}

// CurrentBPM returns the candidate BPM derived from the two most recent
// accepted beats, or false when there is insufficient data. Read-only.
func (p *Processor) CurrentBPM() (int, bool) {
	if p.lastRRMs <= 0 {
		return 0, false
	}
	return int(math.Round(60000 / p.lastRRMs)), true
}

// SignalQuality is a continuous 0..1 measure from the consistency of the most
// recent RR intervals, ramped in over the first few beats.
func (p *Processor) SignalQuality() float64 {
	n := len(p.intervals)
	if n == 0 {
		return 0
	}
	recent := p.intervals
	if n > 10 {
		recent = recent[n-10:]
	}

	mean := 0.0
	for _, rr := range recent {
		mean += rr
	}
	mean /= float64(len(recent))

	variance := 0.0
	for _, rr := range recent {
		d := rr - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	cv := math.Sqrt(variance) / mean
	quality := 1 - 2*cv
	if quality < 0 {
		quality = 0
	}

	ramp := float64(len(recent)) / 5
	if ramp > 1 {
		ramp = 1
	}
	return quality * ramp
}

// HRVMetrics computes the HRV snapshot from the retained interval history, or
// nil when fewer than MinHRVIntervals beats have been accepted.
func (p *Processor) HRVMetrics() *HRVMetrics {
	return ComputeHRV(p.intervals)
}

// Intervals returns a copy of the retained RR history, oldest first.
func (p *Processor) Intervals() []float64 {
	out := make([]float64, len(p.intervals))
	copy(out, p.intervals)
	return out
}

// Waveform returns a copy of the retained filtered samples, oldest first.
func (p *Processor) Waveform() []float64 {
	out := make([]float64, len(p.waveform))
	copy(out, p.waveform)
	return out
}

// Reset clears interval history and detection state. A finger lift invalidates
// all prior beat timing, so the controller calls this on lift and restart.
func (p *Processor) Reset() {
	p.baseline.reset()
	p.smooth.reset()
	p.prev = 0
	p.rising = false
	p.cycMax = 0
	p.cycMin = 0
	p.amp.reset()
	p.lastBeatTS = -1
	p.lastRRMs = 0
	p.intervals = p.intervals[:0]
	p.waveform = p.waveform[:0]
}

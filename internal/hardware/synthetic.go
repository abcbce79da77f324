package hardware

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// SyntheticConfig controls the generated stream.
type SyntheticConfig struct {
	Width     int
	Height    int
	FrameRate float64
	BPM       float64
	Noise     float64 // 0.0 - 0.05 is realistic
}

// SyntheticCamera generates frames whose red channel follows a pulse waveform,
// for development and tests. It implements Camera.
type SyntheticCamera struct {
	cfg SyntheticConfig

	mu          sync.Mutex
	configured  bool
	capturing   bool
	illuminated bool
	covered     bool
	stopCh      chan struct{}
}

func NewSyntheticCamera(cfg SyntheticConfig) *SyntheticCamera {
	if cfg.Width == 0 {
		cfg.Width = 320
	}
	if cfg.Height == 0 {
		cfg.Height = 240
	}
	if cfg.FrameRate == 0 {
		cfg.FrameRate = 30
	}
	if cfg.BPM == 0 {
		cfg.BPM = 60
	}
	return &SyntheticCamera{cfg: cfg, covered: true}
}

func (c *SyntheticCamera) ConfigureOnce() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configured {
		return fmt.Errorf("synthetic camera already configured")
	}
	c.configured = true
	return nil
}

func (c *SyntheticCamera) StartCapture(handler FrameHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.configured {
		return fmt.Errorf("synthetic camera not configured")
	}
	if c.capturing {
		return nil
	}
	c.capturing = true
	c.stopCh = make(chan struct{})
	go c.loop(handler, c.stopCh)
	return nil
}

func (c *SyntheticCamera) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		return nil
	}
	c.capturing = false
	close(c.stopCh)
	return nil
}

func (c *SyntheticCamera) SetIllumination(on bool) error {
	c.mu.Lock()
	c.illuminated = on
	c.mu.Unlock()
	return nil
}

// SetCovered simulates placing (true) or lifting (false) the finger.
func (c *SyntheticCamera) SetCovered(covered bool) {
	c.mu.Lock()
	c.covered = covered
	c.mu.Unlock()
}

func (c *SyntheticCamera) loop(handler FrameHandler, stop chan struct{}) {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / c.cfg.FrameRate))
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			handler(c.frame(n))
			n++
		}
	}
}

// frame renders frame n. With the illuminator on and a covered lens, the red
// channel sits high in the valid brightness band and pulses at the configured
// rate. Uncovered or unlit frames fall out of the finger-presence predicates.
func (c *SyntheticCamera) frame(n int) Frame {
	c.mu.Lock()
	lit := c.illuminated
	covered := c.covered
	c.mu.Unlock()

	t := float64(n) / c.cfg.FrameRate
	var r, g, b byte
	switch {
	case lit && covered:
		pulse := math.Sin(2 * math.Pi * c.cfg.BPM / 60 * t)
		noise := c.cfg.Noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)
		r = byte(150 + 40*(pulse+noise))
		g = 20
		b = 15
	case covered:
		// covered but dark: fails the brightness band
		r, g, b = 12, 4, 3
	default:
		// open lens: bright but not red-dominant
		r, g, b = 180, 170, 160
	}

	stride := c.cfg.Width * 4
	pixels := make([]byte, stride*c.cfg.Height)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = r
		pixels[i+1] = g
		pixels[i+2] = b
		pixels[i+3] = 0xFF
	}
	return Frame{Pixels: pixels, Width: c.cfg.Width, Height: c.cfg.Height, BytesPerRow: stride}
}

func fract(x float64) float64 { return x - math.Floor(x) }

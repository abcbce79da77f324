package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kdimtricp/pulsecam/internal/hardware"
	"github.com/kdimtricp/pulsecam/internal/models"
	"github.com/kdimtricp/pulsecam/internal/ppg"
)

// ErrSessionActive is returned by Start while a session is preparing or
// measuring. A second caller is simply rejected; there is no queueing.
var ErrSessionActive = errors.New("measurement session already active")

// Store persists finished sessions.
type Store interface {
	SaveSession(rec *models.SessionRecord) error
}

// Config holds the session timing parameters and the pipeline configs.
type Config struct {
	WarmupSeconds    float64       // phase boundary within measuring
	TimeLimitSeconds float64       // effective duration that completes a session
	SettleDelay      time.Duration // sensor pipeline stabilization before illumination
	ProgressInterval time.Duration
	HapticInterval   time.Duration

	Sampler   ppg.SamplerConfig
	Processor ppg.ProcessorConfig
	Smoother  ppg.SmootherConfig
}

func DefaultConfig() Config {
	cfg := Config{
		WarmupSeconds:    10,
		TimeLimitSeconds: 60,
		SettleDelay:      300 * time.Millisecond,
		ProgressInterval: 100 * time.Millisecond,
		HapticInterval:   time.Second,
		Sampler:          ppg.DefaultSamplerConfig(),
		Processor:        ppg.DefaultProcessorConfig(),
		Smoother:         ppg.DefaultSmootherConfig(),
	}
	cfg.Smoother.TimeLimit = cfg.TimeLimitSeconds
	return cfg
}

type frameMsg struct {
	sample  ppg.Sample
	warning ppg.Warning
}

// Controller is the measurement state machine. All published session state is
// owned by a single coordination goroutine; hardware control runs on one
// dedicated serial worker because those calls may block; frame callbacks hand
// their samples off through a latest-wins channel.
//
// The controller owns its Camera handle for its whole lifetime: the capture
// session is configured once and never torn down across stop/start cycles.
type Controller struct {
	cfg     Config
	cam     hardware.Camera
	display hardware.DisplaySurface
	haptics hardware.Haptics
	store   Store
	log     *zap.Logger

	sampler  *ppg.Sampler
	proc     *ppg.Processor
	smoother *ppg.Smoother

	commands chan func()
	frames   chan frameMsg
	hwq      chan func()
	done     chan struct{}
	stopOnce sync.Once

	// producer-side flag: the next frame callback resets the sampler so a new
	// session starts with a fresh frame counter
	resetSampler sync.Mutex
	samplerDirty bool

	// coordination-goroutine state, never touched elsewhere
	state       State
	phase       Phase
	errorReason string
	elapsed     float64
	bpm         int
	finger      bool
	fingerPrev  bool
	warning     ppg.Warning
	startedAt   time.Time

	// hardware-worker state, never touched elsewhere
	configured bool
	capturing  bool

	snapMu sync.RWMutex
	snap   Snapshot
}

func NewController(cam hardware.Camera, display hardware.DisplaySurface, haptics hardware.Haptics, store Store, log *zap.Logger, cfg Config) *Controller {
	c := &Controller{
		cfg:      cfg,
		cam:      cam,
		display:  display,
		haptics:  haptics,
		store:    store,
		log:      log,
		sampler:  ppg.NewSampler(cfg.Sampler),
		proc:     ppg.NewProcessor(cfg.Processor),
		smoother: ppg.NewSmoother(cfg.Smoother),
		commands: make(chan func(), 16),
		frames:   make(chan frameMsg, 1),
		hwq:      make(chan func(), 16),
		done:     make(chan struct{}),
		state:    StateIdle,
		phase:    PhaseWarmup,
	}
	c.publish()
	go c.run()
	go c.hardwareWorker()
	return c
}

// Close shuts the controller down. Illumination is switched off but the
// capture session is left to the process teardown, per the shared-resource
// contract.
func (c *Controller) Close() {
	c.stopOnce.Do(func() {
		c.doSync(func() {
			if c.state == StateMeasuring {
				c.stopMeasuring(false)
			}
		})
		close(c.done)
	})
}

// Start begins a new measurement session. Rejected with ErrSessionActive from
// any state except idle and completed.
func (c *Controller) Start() error {
	var err error
	c.doSync(func() { err = c.startSession() })
	return err
}

// Stop ends the current session. No-op unless measuring. When Stop returns no
// progress or haptic work can run anymore for the stopped session.
func (c *Controller) Stop() {
	c.doSync(func() { c.stopMeasuring(true) })
}

// Reset is stop plus a full data clear, forcing the state machine back to
// idle. It is the only way out of the error state.
func (c *Controller) Reset() {
	c.doSync(func() {
		if c.state == StateMeasuring {
			c.illuminate(false)
		}
		c.state = StateIdle
		c.phase = PhaseWarmup
		c.clearSessionData()
		c.publish()
	})
}

// Snapshot returns the current published state.
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// FinalBPM is the post-hoc average over the trailing smoothed results.
func (c *Controller) FinalBPM() int {
	var bpm int
	c.doSync(func() { bpm = c.smoother.FinalBPM() })
	return bpm
}

// FinalHRV returns the HRV metrics over the retained beat history, or nil when
// too few beats were collected.
func (c *Controller) FinalHRV() *ppg.HRVMetrics {
	var hrv *ppg.HRVMetrics
	c.doSync(func() { hrv = c.proc.HRVMetrics() })
	return hrv
}

// run is the coordination goroutine. Both tickers stay armed for the life of
// the controller; their handlers are gated on the session state, so nothing
// ticks for a stopped session.
func (c *Controller) run() {
	progress := time.NewTicker(c.cfg.ProgressInterval)
	defer progress.Stop()
	haptic := time.NewTicker(c.cfg.HapticInterval)
	defer haptic.Stop()

	for {
		select {
		case fn := <-c.commands:
			fn()
		case m := <-c.frames:
			c.onSample(m)
		case <-progress.C:
			c.onProgressTick()
		case <-haptic.C:
			c.onHapticTick()
		case <-c.done:
			return
		}
	}
}

// hardwareWorker serializes all camera control calls. They may block on device
// locking and the settle delay, which must never stall the coordination loop.
func (c *Controller) hardwareWorker() {
	for {
		select {
		case fn := <-c.hwq:
			fn()
		case <-c.done:
			return
		}
	}
}

// doSync runs fn on the coordination goroutine and waits for it.
func (c *Controller) doSync(fn func()) {
	doneCh := make(chan struct{})
	select {
	case c.commands <- func() { fn(); close(doneCh) }:
		select {
		case <-doneCh:
		case <-c.done:
		}
	case <-c.done:
	}
}

// post runs fn on the coordination goroutine without waiting.
func (c *Controller) post(fn func()) {
	select {
	case c.commands <- fn:
	case <-c.done:
	}
}

func (c *Controller) startSession() error {
	if c.state != StateIdle && c.state != StateCompleted {
		return ErrSessionActive
	}

	c.state = StatePreparing
	c.phase = PhaseWarmup
	c.clearSessionData()
	c.startedAt = time.Now()
	c.publish()

	c.log.Info("measurement session starting")
	select {
	case c.hwq <- c.startHardware:
	case <-c.done:
	}
	return nil
}

// startHardware runs on the hardware worker. Ordering matters: the display
// surface must be bound before illumination comes up, and the sensor pipeline
// needs a settle delay in between so the first lit frames are stable.
func (c *Controller) startHardware() {
	if !c.configured {
		if err := c.cam.ConfigureOnce(); err != nil {
			c.log.Error("camera configuration failed", zap.Error(err))
			c.post(func() { c.enterError(fmt.Sprintf("camera unavailable: %v", err)) })
			return
		}
		c.configured = true
	}

	if !c.capturing {
		if err := c.cam.StartCapture(c.onFrame); err != nil {
			c.log.Error("capture start failed", zap.Error(err))
			c.post(func() { c.enterError(fmt.Sprintf("camera unavailable: %v", err)) })
			return
		}
		c.capturing = true
	}

	if err := c.display.Bind(); err != nil {
		// degraded: measurement works without a preview surface
		c.log.Warn("display surface bind failed", zap.Error(err))
	}

	time.Sleep(c.cfg.SettleDelay)

	if err := c.cam.SetIllumination(true); err != nil {
		c.log.Warn("illumination enable failed", zap.Error(err))
	}

	c.post(func() {
		if c.state != StatePreparing {
			// stopped or reset while the hardware was settling
			c.illuminate(false)
			return
		}
		c.state = StateMeasuring
		c.phase = PhaseWarmup
		c.publish()
		c.log.Info("measurement session running")
	})
}

// onFrame runs on the camera delivery goroutine. Pixel work happens inline
// since it reads only the frame; the resulting sample is handed to the
// coordination goroutine, latest wins when it falls behind.
func (c *Controller) onFrame(f hardware.Frame) {
	c.resetSampler.Lock()
	if c.samplerDirty {
		c.sampler.Reset()
		c.samplerDirty = false
	}
	sample, warning := c.sampler.Process(f)
	c.resetSampler.Unlock()

	m := frameMsg{sample: sample, warning: warning}
	select {
	case c.frames <- m:
	default:
		select {
		case <-c.frames:
		default:
		}
		select {
		case c.frames <- m:
		default:
		}
	}
}

func (c *Controller) onSample(m frameMsg) {
	if c.state != StateMeasuring {
		return
	}

	c.finger = m.sample.Valid
	c.warning = m.warning

	_, beat := c.proc.ProcessSample(m.sample.Value, m.sample.Timestamp, m.sample.Valid)
	if beat {
		if raw, ok := c.proc.CurrentBPM(); ok {
			c.bpm = c.smoother.Update(float64(raw), c.elapsed)
		}
	}
	c.publish()
}

func (c *Controller) onProgressTick() {
	if c.state != StateMeasuring {
		return
	}

	if c.fingerPrev && !c.finger {
		// finger lift: all prior beat timing is invalid
		c.log.Debug("finger lift, resetting session progress")
		c.elapsed = 0
		c.bpm = 0
		c.phase = PhaseWarmup
		c.smoother.Reset()
		c.proc.Reset()
	} else if c.finger {
		// effective time accumulates only while a finger is detected
		c.elapsed += c.cfg.ProgressInterval.Seconds()
		if c.elapsed >= c.cfg.WarmupSeconds {
			c.phase = PhaseAcquisition
		} else {
			c.phase = PhaseWarmup
		}
		if c.elapsed >= c.cfg.TimeLimitSeconds && c.bpm > 0 {
			c.phase = PhaseCompleted
			c.fingerPrev = c.finger
			c.publish()
			c.stopMeasuring(true)
			return
		}
	}

	c.fingerPrev = c.finger
	c.publish()
}

func (c *Controller) onHapticTick() {
	// gated, not rescheduled
	if c.state == StateMeasuring && c.finger {
		c.haptics.Pulse()
	}
}

// stopMeasuring ends the session. Illumination goes off; the capture session
// keeps running so the next start skips device re-initialization.
func (c *Controller) stopMeasuring(persist bool) {
	if c.state != StateMeasuring {
		return
	}

	c.illuminate(false)

	if c.bpm > 0 {
		c.state = StateCompleted
		c.phase = PhaseCompleted
		if persist {
			c.persistSession()
		}
	} else {
		c.state = StateIdle
		c.phase = PhaseWarmup
	}
	c.publish()
	c.log.Info("measurement session stopped",
		zap.String("state", string(c.state)),
		zap.Int("final_bpm", c.smoother.FinalBPM()))
}

func (c *Controller) persistSession() {
	if c.store == nil {
		return
	}
	rec := models.NewSessionRecord(c.startedAt, c.elapsed, c.smoother.FinalBPM(), c.proc.HRVMetrics())
	go func() {
		if err := c.store.SaveSession(rec); err != nil {
			c.log.Error("failed to persist session", zap.String("session_id", rec.ID), zap.Error(err))
		}
	}()
}

func (c *Controller) enterError(reason string) {
	c.state = StateError
	c.errorReason = reason
	c.illuminate(false)
	c.publish()
}

func (c *Controller) illuminate(on bool) {
	select {
	case c.hwq <- func() {
		if err := c.cam.SetIllumination(on); err != nil {
			c.log.Warn("illumination toggle failed", zap.Bool("on", on), zap.Error(err))
		}
	}:
	case <-c.done:
	}
}

func (c *Controller) clearSessionData() {
	c.elapsed = 0
	c.bpm = 0
	c.finger = false
	c.fingerPrev = false
	c.warning = ppg.WarningNone
	c.errorReason = ""
	c.proc.Reset()
	c.smoother.Reset()

	c.resetSampler.Lock()
	c.samplerDirty = true
	c.resetSampler.Unlock()
}

// publish copies the actor-owned state into the read snapshot.
func (c *Controller) publish() {
	snap := Snapshot{
		State:          c.state,
		Phase:          c.phase,
		ErrorReason:    c.errorReason,
		BPM:            c.bpm,
		SignalQuality:  c.proc.SignalQuality(),
		FingerDetected: c.finger,
		Warning:        string(c.warning),
		ElapsedS:       c.elapsed,
		FinalBPM:       c.smoother.FinalBPM(),
		Waveform:       c.proc.Waveform(),
		HRV:            c.proc.HRVMetrics(),
	}
	c.snapMu.Lock()
	c.snap = snap
	c.snapMu.Unlock()
}

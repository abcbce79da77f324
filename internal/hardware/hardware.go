package hardware

// Frame is one raw video frame as delivered by the camera driver. Pixels are
// packed RGBA, BytesPerRow may be larger than Width*4 on padded buffers.
type Frame struct {
	Pixels      []byte
	Width       int
	Height      int
	BytesPerRow int
}

// FrameHandler receives frames on the camera's delivery goroutine. It must not
// block; heavy work belongs behind a channel hand-off.
type FrameHandler func(Frame)

// Camera is the sensor and illumination collaborator. All methods may block on
// device locking and must therefore only be called from a single goroutine.
//
// StopCapture exists for completeness but the measurement core never calls it:
// the capture session is deliberately kept running across stop/start cycles to
// avoid re-initialization flicker.
type Camera interface {
	ConfigureOnce() error
	StartCapture(handler FrameHandler) error
	StopCapture() error
	SetIllumination(on bool) error
}

// DisplaySurface is the preview surface bound to the capture session. Bind must
// be called before illumination is enabled, otherwise the late binding shows up
// as a visible flash.
type DisplaySurface interface {
	Bind() error
}

// Haptics fires tactile feedback pulses. Fire-and-forget, no error path.
type Haptics interface {
	Pulse()
}

// NopDisplay is a DisplaySurface for headless setups.
type NopDisplay struct{}

func (NopDisplay) Bind() error { return nil }

// NopHaptics is a Haptics that does nothing.
type NopHaptics struct{}

func (NopHaptics) Pulse() {}

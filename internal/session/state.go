package session

import "github.com/kdimtricp/pulsecam/internal/ppg"

// State is the measurement session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StatePreparing State = "preparing"
	StateMeasuring State = "measuring"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// Phase subdivides StateMeasuring by effective elapsed time.
type Phase string

const (
	PhaseWarmup      Phase = "warmup"
	PhaseAcquisition Phase = "acquisition"
	PhaseCompleted   Phase = "completed"
)

// Snapshot is the published read surface. It is an immutable copy; the UI and
// the live feed poll it without touching controller internals.
type Snapshot struct {
	State          State            `json:"state"`
	Phase          Phase            `json:"phase"`
	ErrorReason    string           `json:"error_reason,omitempty"`
	BPM            int              `json:"bpm"`
	SignalQuality  float64          `json:"signal_quality"`
	FingerDetected bool             `json:"finger_detected"`
	Warning        string           `json:"warning,omitempty"`
	ElapsedS       float64          `json:"elapsed_s"`
	FinalBPM       int              `json:"final_bpm"`
	Waveform       []float64        `json:"waveform"`
	HRV            *ppg.HRVMetrics `json:"hrv,omitempty"`
}

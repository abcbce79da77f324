package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kdimtricp/pulsecam/internal/ppg"
)

// SessionRecord is a finished measurement session as persisted to the store.
type SessionRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	DurationS   float64   `json:"duration_s"`
	FinalBPM    int       `json:"final_bpm"`
	MeanRR      float64   `json:"mean_rr"`
	SDNN        float64   `json:"sdnn"`
	RMSSD       float64   `json:"rmssd"`
	PNN50       float64   `json:"pnn50"`
	SD1         float64   `json:"sd1"`
	SD2         float64   `json:"sd2"`
	SampleCount int       `json:"sample_count"`
	Quality     string    `json:"quality"`
}

// NewSessionRecord builds a record from session results. HRV may be nil when
// the session ended before enough beats accumulated.
func NewSessionRecord(startedAt time.Time, durationS float64, finalBPM int, hrv *ppg.HRVMetrics) *SessionRecord {
	rec := &SessionRecord{
		ID:        uuid.New().String(),
		StartedAt: startedAt,
		DurationS: durationS,
		FinalBPM:  finalBPM,
		Quality:   string(ppg.QualityInsufficient),
	}
	if hrv != nil {
		rec.MeanRR = hrv.MeanRR
		rec.SDNN = hrv.SDNN
		rec.RMSSD = hrv.RMSSD
		rec.PNN50 = hrv.PNN50
		rec.SD1 = hrv.SD1
		rec.SD2 = hrv.SD2
		rec.SampleCount = hrv.SampleCount
		rec.Quality = string(hrv.Quality)
	}
	return rec
}

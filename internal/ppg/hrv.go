package ppg

import "math"

// Quality classifies how trustworthy an HRV snapshot is.
type Quality string

const (
	QualityReliable     Quality = "reliable"
	QualityEstimated    Quality = "estimated"
	QualityInsufficient Quality = "insufficient"
)

// Interval count minimums. Below MinHRVIntervals ComputeHRV returns nil; SDNN,
// SD1 and SD2 additionally need MinVarIntervals, RMSSD and pNN50 need at least
// two successive differences (three intervals). Fields that cannot be computed
// at the current count are left zero.
const (
	MinHRVIntervals = 2
	MinVarIntervals = 3
)

// HRVMetrics is an immutable snapshot of heart-rate-variability statistics
// over the retained RR-interval history. All interval fields are milliseconds.
type HRVMetrics struct {
	SDNN        float64 `json:"sdnn"`
	RMSSD       float64 `json:"rmssd"`
	PNN50       float64 `json:"pnn50"`
	MeanRR      float64 `json:"mean_rr"`
	MinRR       float64 `json:"min_rr"`
	MaxRR       float64 `json:"max_rr"`
	SD1         float64 `json:"sd1"`
	SD2         float64 `json:"sd2"`
	SampleCount int     `json:"sample_count"`
	Quality     Quality `json:"quality"`
}

// ComputeHRV derives the standard HRV statistics from an RR-interval sequence:
//
//	meanRR = mean(RR)
//	SDNN   = population standard deviation of RR
//	d_i    = RR_{i+1} - RR_i
//	RMSSD  = sqrt(mean(d_i^2))
//	pNN50  = 100 * count(|d_i| > 50ms) / count(d_i)
//	SD1    = sqrt(Var(d)/2)
//	SD2    = sqrt(2*SDNN^2 - SD1^2)
//
// Returns nil below MinHRVIntervals instead of a misleading zero result.
func ComputeHRV(intervals []float64) *HRVMetrics {
	n := len(intervals)
	if n < MinHRVIntervals {
		return nil
	}

	m := &HRVMetrics{SampleCount: n}

	sum := 0.0
	m.MinRR = intervals[0]
	m.MaxRR = intervals[0]
	for _, rr := range intervals {
		sum += rr
		if rr < m.MinRR {
			m.MinRR = rr
		}
		if rr > m.MaxRR {
			m.MaxRR = rr
		}
	}
	m.MeanRR = sum / float64(n)

	if n >= MinVarIntervals {
		variance := 0.0
		for _, rr := range intervals {
			d := rr - m.MeanRR
			variance += d * d
		}
		variance /= float64(n)
		m.SDNN = math.Sqrt(variance)
	}

	diffs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		diffs = append(diffs, intervals[i]-intervals[i-1])
	}

	if len(diffs) >= 2 {
		sumSq := 0.0
		meanD := 0.0
		over50 := 0
		for _, d := range diffs {
			sumSq += d * d
			meanD += d
			if math.Abs(d) > 50 {
				over50++
			}
		}
		meanD /= float64(len(diffs))
		m.RMSSD = math.Sqrt(sumSq / float64(len(diffs)))
		m.PNN50 = 100 * float64(over50) / float64(len(diffs))

		if n >= MinVarIntervals {
			varD := 0.0
			for _, d := range diffs {
				varD += (d - meanD) * (d - meanD)
			}
			varD /= float64(len(diffs))
			m.SD1 = math.Sqrt(varD / 2)

			sd2sq := 2*m.SDNN*m.SDNN - m.SD1*m.SD1
			if sd2sq > 0 {
				m.SD2 = math.Sqrt(sd2sq)
			}
		}
	}

	m.Quality = classifyQuality(m)
	return m
}

func classifyQuality(m *HRVMetrics) Quality {
	if m.SampleCount < 10 {
		return QualityInsufficient
	}
	cv := 0.0
	if m.MeanRR > 0 {
		cv = m.SDNN / m.MeanRR
	}
	if m.SampleCount < 30 || cv > 0.2 {
		return QualityEstimated
	}
	return QualityReliable
}

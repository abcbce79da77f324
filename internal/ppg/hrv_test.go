package ppg

import (
	"math"
	"testing"
)

func TestComputeHRV_MinimumCount(t *testing.T) {
	if m := ComputeHRV(nil); m != nil {
		t.Fatalf("Expected nil for empty history, got %+v", m)
	}
	if m := ComputeHRV([]float64{1000}); m != nil {
		t.Fatalf("Expected nil for single interval, got %+v", m)
	}

	m := ComputeHRV([]float64{900, 1100})
	if m == nil {
		t.Fatal("Expected metrics at the minimum interval count")
	}
	if m.SampleCount != 2 {
		t.Errorf("Expected sample count 2, got %d", m.SampleCount)
	}
	if m.MeanRR != 1000 {
		t.Errorf("Expected meanRR 1000, got %f", m.MeanRR)
	}
	if m.MinRR != 900 || m.MaxRR != 1100 {
		t.Errorf("Expected min/max 900/1100, got %f/%f", m.MinRR, m.MaxRR)
	}
	// variance metrics need more intervals and stay zero here
	if m.SDNN != 0 || m.RMSSD != 0 || m.SD1 != 0 || m.SD2 != 0 {
		t.Errorf("Expected variance metrics zero at 2 intervals, got %+v", m)
	}
}

func TestComputeHRV_KnownVector(t *testing.T) {
	m := ComputeHRV([]float64{900, 1000, 1100})
	if m == nil {
		t.Fatal("Expected metrics")
	}

	const tol = 1e-9
	if m.MeanRR != 1000 {
		t.Errorf("Expected meanRR 1000, got %f", m.MeanRR)
	}
	wantSDNN := math.Sqrt(20000.0 / 3.0)
	if math.Abs(m.SDNN-wantSDNN) > tol {
		t.Errorf("Expected SDNN %f, got %f", wantSDNN, m.SDNN)
	}
	// successive differences are {100, 100}
	if math.Abs(m.RMSSD-100) > tol {
		t.Errorf("Expected RMSSD 100, got %f", m.RMSSD)
	}
	if m.PNN50 != 100 {
		t.Errorf("Expected pNN50 100, got %f", m.PNN50)
	}
	if m.SD1 != 0 {
		t.Errorf("Expected SD1 0 for constant differences, got %f", m.SD1)
	}
	wantSD2 := math.Sqrt(2 * wantSDNN * wantSDNN)
	if math.Abs(m.SD2-wantSD2) > 1e-9 {
		t.Errorf("Expected SD2 %f, got %f", wantSD2, m.SD2)
	}
}

func TestComputeHRV_Invariants(t *testing.T) {
	sequences := [][]float64{
		{1000, 1000, 1000, 1000},
		{800, 820, 790, 810, 805, 795},
		{600, 1400, 600, 1400, 600},
		{1000, 940, 1060, 980, 1020, 1000, 960, 1040},
	}

	for i, seq := range sequences {
		m := ComputeHRV(seq)
		if m == nil {
			t.Fatalf("Sequence %d: expected metrics", i)
		}
		if m.SDNN < 0 || m.RMSSD < 0 {
			t.Errorf("Sequence %d: negative deviation metrics: %+v", i, m)
		}
		if m.PNN50 < 0 || m.PNN50 > 100 {
			t.Errorf("Sequence %d: pNN50 out of range: %f", i, m.PNN50)
		}
		// SD2^2 = 2*SDNN^2 - SD1^2 to floating point tolerance
		lhs := m.SD2 * m.SD2
		rhs := 2*m.SDNN*m.SDNN - m.SD1*m.SD1
		if rhs > 0 && math.Abs(lhs-rhs) > 1e-6 {
			t.Errorf("Sequence %d: Poincare identity violated: %f vs %f", i, lhs, rhs)
		}
	}
}

func TestComputeHRV_Quality(t *testing.T) {
	steady := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1000 + float64(i%2)*10
		}
		return out
	}

	if m := ComputeHRV(steady(5)); m.Quality != QualityInsufficient {
		t.Errorf("Expected insufficient at 5 intervals, got %s", m.Quality)
	}
	if m := ComputeHRV(steady(15)); m.Quality != QualityEstimated {
		t.Errorf("Expected estimated at 15 intervals, got %s", m.Quality)
	}
	if m := ComputeHRV(steady(40)); m.Quality != QualityReliable {
		t.Errorf("Expected reliable at 40 steady intervals, got %s", m.Quality)
	}

	// high variability stays estimated regardless of count
	erratic := make([]float64, 40)
	for i := range erratic {
		if i%2 == 0 {
			erratic[i] = 600
		} else {
			erratic[i] = 1400
		}
	}
	if m := ComputeHRV(erratic); m.Quality != QualityEstimated {
		t.Errorf("Expected estimated for erratic intervals, got %s", m.Quality)
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/kdimtricp/pulsecam/internal/hardware"
	"github.com/kdimtricp/pulsecam/internal/session"
)

// simulate runs one synthetic measurement session end to end and prints the
// results, without a database or HTTP server.
func main() {
	var bpm = flag.Float64("bpm", 72, "Simulated pulse rate")
	var fps = flag.Float64("fps", 30, "Simulated camera frame rate")
	var noise = flag.Float64("noise", 0.02, "Simulated signal noise (0.0-0.05)")
	var duration = flag.Float64("duration", 30, "Measurement time limit in seconds")
	flag.Parse()

	cam := hardware.NewSyntheticCamera(hardware.SyntheticConfig{
		FrameRate: *fps,
		BPM:       *bpm,
		Noise:     *noise,
	})

	cfg := session.DefaultConfig()
	cfg.TimeLimitSeconds = *duration
	cfg.Smoother.TimeLimit = *duration
	cfg.Sampler.SampleRate = *fps

	controller := session.NewController(cam, hardware.NopDisplay{}, hardware.NopHaptics{}, nil, zap.NewNop(), cfg)
	defer controller.Close()

	if err := controller.Start(); err != nil {
		log.Fatal("Failed to start session:", err)
	}
	fmt.Printf("Measuring %.0fs of a synthetic %.0f BPM pulse...\n", *duration, *bpm)

	deadline := time.Now().Add(time.Duration(*duration+15) * time.Second)
	for time.Now().Before(deadline) {
		snap := controller.Snapshot()
		if snap.State == session.StateCompleted || snap.State == session.StateError {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	snap := controller.Snapshot()
	if snap.State == session.StateError {
		log.Fatal("Session failed: ", snap.ErrorReason)
	}
	controller.Stop()

	fmt.Printf("\nState:      %s\n", snap.State)
	fmt.Printf("Final BPM:  %d\n", controller.FinalBPM())
	if hrv := controller.FinalHRV(); hrv != nil {
		fmt.Printf("Mean RR:    %.1f ms\n", hrv.MeanRR)
		fmt.Printf("SDNN:       %.1f ms\n", hrv.SDNN)
		fmt.Printf("RMSSD:      %.1f ms\n", hrv.RMSSD)
		fmt.Printf("pNN50:      %.1f %%\n", hrv.PNN50)
		fmt.Printf("SD1/SD2:    %.1f / %.1f ms\n", hrv.SD1, hrv.SD2)
		fmt.Printf("Quality:    %s (%d beats)\n", hrv.Quality, hrv.SampleCount)
	} else {
		fmt.Println("Not enough beats for HRV metrics")
	}
}

package monitor

import (
	"os"
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestMonitorLoopShutdownLeavesNoGoroutine(t *testing.T) {
	baseline := runtime.NumGoroutine()

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{})
	metrics := MakeMetrics()

	wg := sync.WaitGroup{}
	shutdown := make(chan bool, 1)
	wg.Add(1)
	go runMonitorLoop(testLogger(), &wg, nil, tracker, nil, metrics,
		Config{PollEverySeconds: 3600}, shutdown)

	// Let the immediate first pass run, then stop the loop. Waiting on wg
	// only returns once the loop has actually exited.
	time.Sleep(50 * time.Millisecond)
	shutdown <- true
	wg.Wait()

	// The loop must not leave a sleeper goroutine blocked behind it.
	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > baseline {
		if time.Now().After(deadline) {
			t.Fatalf("%d goroutines still running after shutdown, want at most %d",
				runtime.NumGoroutine(), baseline)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExpirySweepLoopShutdownLeavesNoGoroutine(t *testing.T) {
	baseline := runtime.NumGoroutine()

	surface := makeFakeSurface()
	tracker := MakeEntityTracker(surface, TrackerPolicy{ExpireAfter: time.Minute})

	wg := sync.WaitGroup{}
	shutdown := make(chan bool, 1)
	wg.Add(1)
	go runExpirySweepLoop(testLogger(), &wg, tracker, 3600, shutdown)

	shutdown <- true
	wg.Wait()

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > baseline {
		if time.Now().After(deadline) {
			t.Fatalf("%d goroutines still running after shutdown, want at most %d",
				runtime.NumGoroutine(), baseline)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartServicesWaitsForSubroutinesOnEarlySignal(t *testing.T) {
	// Deliver the signal before StartServices even runs: every subroutine is
	// registered on the wait group before it is spawned, so the early signal
	// still waits for all of them to shut down instead of racing past them.
	shutdown := make(chan os.Signal, 1)
	shutdown <- os.Interrupt

	done := make(chan struct{})
	go func() {
		StartServices(testLogger(), nil, nil, "", ServicesConfig{
			Monitor:   Config{PollEverySeconds: 3600},
			Tracker:   TrackerPolicy{ExpireAfter: time.Minute},
			HTTPPort:  0,
			StaticDir: ".",
		}, shutdown)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("StartServices did not return after shutdown signal")
	}
}

package monitor

import (
	logger "log"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ServicesConfig carries everything StartServices needs beyond the scheduler
// settings.
type ServicesConfig struct {
	Monitor   Config
	Tracker   TrackerPolicy
	HTTPPort  int
	StaticDir string
	// SweepEverySeconds is the cadence of the staleness sweep; only used when
	// the tracker policy has a non-zero ExpireAfter.
	SweepEverySeconds int
}

// StartServices brings up the monitor loop, the expiry sweep and the map web
// service, and blocks until a shutdown signal arrives. natsConn may be nil,
// in which case reconciled updates are not published.
func StartServices(log *logger.Logger,
	fetchers []LineFetcher,
	natsConn *nats.Conn,
	natsSubject string,
	cfg ServicesConfig,
	shutdownSignal chan os.Signal) {

	wg := sync.WaitGroup{}

	surface := MakeWSMapSurface(log)
	tracker := MakeEntityTracker(surface, cfg.Tracker)
	metrics := MakeMetrics()

	var publisher *UpdatePublisher
	if natsConn != nil {
		publisher = MakeNatsUpdatePublisher(log, natsConn, natsSubject)
	}

	monitorShutdown := make(chan bool, 1)
	sweepShutdown := make(chan bool, 1)
	webServiceShutdown := make(chan bool, 1)

	// Register every subroutine before spawning it so a shutdown signal
	// arriving early cannot pass wg.Wait before the goroutines are scheduled.
	wg.Add(1)
	go runMonitorLoop(log, &wg, fetchers, tracker, publisher, metrics, cfg.Monitor, monitorShutdown)
	if cfg.Tracker.ExpireAfter > 0 {
		wg.Add(1)
		go runExpirySweepLoop(log, &wg, tracker, cfg.SweepEverySeconds, sweepShutdown)
	}
	wg.Add(1)
	go runWebService(log, &wg, surface, metrics, cfg.StaticDir, cfg.HTTPPort, webServiceShutdown)

	<-shutdownSignal
	log.Printf("exiting on shutdown signal, shutting down subroutines")
	monitorShutdown <- true
	sweepShutdown <- true
	webServiceShutdown <- true
	wg.Wait()
	log.Printf("subroutines shut down, exiting transit monitor")
}

// runExpirySweepLoop periodically removes entities whose vehicles have
// stopped reporting, per the tracker's expiry policy. Callers register the
// goroutine on wg before spawning it.
func runExpirySweepLoop(log *logger.Logger,
	wg *sync.WaitGroup,
	tracker *EntityTracker,
	sweepEverySeconds int,
	shutdownSignal chan bool) {

	defer wg.Done()

	if sweepEverySeconds <= 0 {
		sweepEverySeconds = 60
	}
	loopDuration := time.Duration(sweepEverySeconds) * time.Second

	for {
		select {
		case <-shutdownSignal:
			log.Printf("exiting expiry sweep loop on shutdown signal")
			return
		case <-time.After(loopDuration):
		}

		removed, remaining := tracker.ExpireStale(time.Now())
		if removed > 0 {
			log.Printf("expired %d stale entities, %d remaining", removed, remaining)
		}
	}
}

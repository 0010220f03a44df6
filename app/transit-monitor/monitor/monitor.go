// Package monitor polls the agencies' vehicle feeds on a fixed cadence and
// maintains the live map entities built from them.
package monitor

import (
	"context"
	logger "log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

// LineFetcher is the per-agency adapter contract: one fetch-and-parse
// pipeline turning an upstream response into zero or more normalized records.
type LineFetcher interface {
	Agency() transit.Agency
	FetchLine(ctx context.Context, lineNumber int, direction transit.Direction) ([]transit.Vehicle, error)
}

// Config carries the polling scheduler settings.
type Config struct {
	// PollEverySeconds is the tick cadence.
	PollEverySeconds int
	// AgencyRequestsPerSecond smooths the burst of per-tuple fetches so an
	// agency is not hammered at the top of every tick. 0 disables limiting.
	AgencyRequestsPerSecond float64
}

// runMonitorLoop runs an immediate first polling pass, then repeats on the
// configured cadence until a shutdown signal arrives. Every tick dispatches
// one goroutine per (agency, line, direction) tuple with no ordering between
// tuples and no completion tracking: a slow fetch from one tick may still be
// in flight when the next tick starts, which the tracker tolerates through
// idempotent upserts by vehicle id. Callers register the goroutine on wg
// before spawning it.
func runMonitorLoop(log *logger.Logger,
	wg *sync.WaitGroup,
	fetchers []LineFetcher,
	tracker *EntityTracker,
	publisher *UpdatePublisher,
	metrics *Metrics,
	cfg Config,
	shutdownSignal chan bool) {

	defer wg.Done()

	loopDuration := time.Duration(cfg.PollEverySeconds) * time.Second

	limiters := make(map[transit.Agency]*rate.Limiter)
	for _, fetcher := range fetchers {
		limiters[fetcher.Agency()] = makeAgencyLimiter(cfg.AgencyRequestsPerSecond)
	}

	sleep := time.Duration(0) //poll immediately the first time

	for {
		select {
		case <-shutdownSignal:
			log.Printf("exiting monitor loop on shutdown signal")
			return
		case <-time.After(sleep):
		}

		start := time.Now()
		dispatched := 0
		for _, fetcher := range fetchers {
			agency := fetcher.Agency()
			limiter := limiters[agency]
			for _, lineNumber := range transit.AllLines(agency) {
				for _, direction := range transit.DirectionsForLine(agency, lineNumber) {
					go fetchTuple(log, fetcher, limiter, lineNumber, direction,
						tracker, publisher, metrics)
					dispatched++
				}
			}
		}
		metrics.TickSeconds.Observe(time.Since(start).Seconds())
		log.Printf("dispatched %d line/direction fetches", dispatched)

		sleep = loopDuration
	}
}

// makeAgencyLimiter builds the per-agency limiter. The burst allows a handful
// of requests to go out together so the first tick is not fully serialized.
func makeAgencyLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 5)
}

// fetchTuple performs one fetch-and-render cycle for a single (agency, line,
// direction) tuple. Failures are logged and isolated: one tuple failing never
// delays or aborts any other.
func fetchTuple(log *logger.Logger,
	fetcher LineFetcher,
	limiter *rate.Limiter,
	lineNumber int,
	direction transit.Direction,
	tracker *EntityTracker,
	publisher *UpdatePublisher,
	metrics *Metrics) {

	agency := string(fetcher.Agency())

	if err := limiter.Wait(context.Background()); err != nil {
		return
	}

	metrics.FetchesTotal.WithLabelValues(agency).Inc()
	vehicles, err := fetcher.FetchLine(context.Background(), lineNumber, direction)
	if err != nil {
		metrics.FetchErrorsTotal.WithLabelValues(agency).Inc()
		log.Printf("error fetching %s line %d%s: %v",
			agency, lineNumber, direction.QueryCode(), err)
		return
	}

	for i := range vehicles {
		vehicle := &vehicles[i]
		if !vehicle.HasPosition() {
			continue
		}
		tracker.Reconcile(vehicle)
		publisher.PublishVehicle(vehicle)
		metrics.VehiclesTotal.WithLabelValues(agency).Inc()
	}
	metrics.EntitiesTracked.Set(float64(tracker.EntityCount()))
}

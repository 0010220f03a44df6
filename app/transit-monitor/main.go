package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"

	"github.com/philsawicki/public-transit-live-map/app/transit-monitor/monitor"
	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "TRANSIT_MONITOR : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		Web  struct {
			HTTPPort  int    `conf:"default:3002"`
			StaticDir string `conf:"default:./app/transit-monitor/static"`
		}
		Poll struct {
			EverySeconds            int     `conf:"default:20"`
			UpstreamTimeoutSeconds  int     `conf:"default:15"`
			AgencyRequestsPerSecond float64 `conf:"default:8"`
		}
		Tracker struct {
			MaxTrailPoints      int `conf:"default:0"`
			ExpireEntitySeconds int `conf:"default:0"`
			SweepEverySeconds   int `conf:"default:60"`
		}
		Upstream struct {
			STMBaseURL string
			STLBaseURL string
		}
		Nats struct {
			Publish bool   `conf:"default:false"`
			URL     string `conf:"default:nats://127.0.0.1:4222"`
			Subject string `conf:"default:vehicle-map-updates"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Poll agency vehicle feeds and maintain the live bus map"
	const prefix = "TRANSITMAP"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	upstreamTimeout := time.Duration(cfg.Poll.UpstreamTimeoutSeconds) * time.Second
	fetchers := []monitor.LineFetcher{
		transit.MakeSTMClient(cfg.Upstream.STMBaseURL, upstreamTimeout),
		transit.MakeSTLClient(cfg.Upstream.STLBaseURL, upstreamTimeout),
	}

	var natsConn *nats.Conn
	if cfg.Nats.Publish {
		log.Printf("main: Connecting to NATS at %s", cfg.Nats.URL)
		natsConn, err = nats.Connect(cfg.Nats.URL)
		if err != nil {
			return fmt.Errorf("connecting to nats at %s: %w", cfg.Nats.URL, err)
		}
		defer natsConn.Close()
	}

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	monitor.StartServices(log, fetchers, natsConn, cfg.Nats.Subject, monitor.ServicesConfig{
		Monitor: monitor.Config{
			PollEverySeconds:        cfg.Poll.EverySeconds,
			AgencyRequestsPerSecond: cfg.Poll.AgencyRequestsPerSecond,
		},
		Tracker: monitor.TrackerPolicy{
			MaxTrailPoints: cfg.Tracker.MaxTrailPoints,
			ExpireAfter:    time.Duration(cfg.Tracker.ExpireEntitySeconds) * time.Second,
		},
		HTTPPort:          cfg.Web.HTTPPort,
		StaticDir:         cfg.Web.StaticDir,
		SweepEverySeconds: cfg.Tracker.SweepEverySeconds,
	}, shutdown)

	return nil
}

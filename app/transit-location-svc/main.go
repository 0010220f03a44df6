package main

import (
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"

	"github.com/philsawicki/public-transit-live-map/app/transit-location-svc/locationsvc"
	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "TRANSIT_LOCATION : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
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
			HTTPPort int `conf:"default:3000"`
		}
		Upstream struct {
			TimeoutSeconds int `conf:"default:15"`
			STMBaseURL     string
			STLBaseURL     string
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Proxy bus location queries to the agency upstreams"
	const prefix = "LOCATION"
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

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	upstreamTimeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	fetchers := []locationsvc.LineFetcher{
		transit.MakeSTMClient(cfg.Upstream.STMBaseURL, upstreamTimeout),
		transit.MakeSTLClient(cfg.Upstream.STLBaseURL, upstreamTimeout),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	wg := sync.WaitGroup{}
	webServiceShutdown := make(chan bool, 1)
	wg.Add(1)
	go locationsvc.RunWebService(log, &wg, fetchers, cfg.Web.HTTPPort, webServiceShutdown)

	<-shutdown
	log.Printf("exiting on shutdown signal")
	webServiceShutdown <- true
	wg.Wait()

	return nil
}

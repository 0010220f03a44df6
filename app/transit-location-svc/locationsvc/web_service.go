// Package locationsvc exposes the bus location proxy endpoint fronting the
// agency adapters.
package locationsvc

import (
	"context"
	"encoding/json"
	logger "log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/philsawicki/public-transit-live-map/business/data/transit"
)

// LineFetcher is the adapter contract the service fronts.
type LineFetcher interface {
	Agency() transit.Agency
	FetchLine(ctx context.Context, lineNumber int, direction transit.Direction) ([]transit.Vehicle, error)
}

//defaultHttpHandler simple default http handler for default route
type defaultHttpHandler struct {
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

//busLocationHandler responds to bus location requests by calling the
//matching agency adapter
type busLocationHandler struct {
	log      *logger.Logger
	fetchers map[transit.Agency]LineFetcher
}

//makeBusLocationHandler builds busLocationHandler from the given fetchers
func makeBusLocationHandler(log *logger.Logger, fetchers []LineFetcher) *busLocationHandler {
	byAgency := make(map[transit.Agency]LineFetcher)
	for _, fetcher := range fetchers {
		byAgency[fetcher.Agency()] = fetcher
	}
	return &busLocationHandler{
		log:      log,
		fetchers: byAgency,
	}
}

// JsonLocationResponseWrapper wraps the normalized vehicle records of one
// line/direction query.
type JsonLocationResponseWrapper struct {
	Timestamp int64             `json:"timestamp"`
	Vehicles  []transit.Vehicle `json:"vehicles"`
}

// JsonErrorResponse is returned for any failure. It is served with HTTP 200
// because that is the contract the map clients expect; clients branch on the
// error flag, not the status code.
type JsonErrorResponse struct {
	Error        bool   `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

//ServeHTTP implements busLocationHandler's http.Handler interface
func (b *busLocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	agency, err := transit.ParseAgency(vars["agency"])
	if err != nil {
		b.serveError(w, err.Error())
		return
	}
	lineNumber, err := strconv.Atoi(vars["lineNumber"])
	if err != nil {
		b.serveError(w, "line number must be numeric")
		return
	}
	direction, err := transit.ParseDirection(vars["direction"])
	if err != nil {
		b.serveError(w, err.Error())
		return
	}

	fetcher, present := b.fetchers[agency]
	if !present {
		b.serveError(w, "no fetcher registered for agency "+string(agency))
		return
	}

	vehicles, err := fetcher.FetchLine(r.Context(), lineNumber, direction)
	if err != nil {
		b.log.Printf("error fetching %s line %d%s: %v",
			agency, lineNumber, direction.QueryCode(), err)
		b.serveError(w, err.Error())
		return
	}

	// An upstream-reported error already surfaced as zero vehicles; an empty
	// list is a normal response, not a failure.
	if vehicles == nil {
		vehicles = make([]transit.Vehicle, 0)
	}
	b.serveJSON(w, JsonLocationResponseWrapper{
		Timestamp: time.Now().Unix(),
		Vehicles:  vehicles,
	})
}

func (b *busLocationHandler) serveError(w http.ResponseWriter, message string) {
	b.serveJSON(w, JsonErrorResponse{Error: true, ErrorMessage: message})
}

func (b *busLocationHandler) serveJSON(w http.ResponseWriter, payload interface{}) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		b.log.Printf("error marshaling response: %v", err)
		http.Error(w, "Error serving request", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(jsonData); err != nil {
		b.log.Printf("error writing json response: %v", err)
	}
}

//createServer creates configured http.Server for responding to bus location requests
func createServer(log *logger.Logger, fetchers []LineFetcher, httpPort int) *http.Server {
	locationService := makeBusLocationHandler(log, fetchers)

	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{})
	r.Handle("/bus/location/{agency}/{lineNumber}/{direction}", locationService)
	srv := &http.Server{
		Addr: strings.Join([]string{"0.0.0.0", strconv.Itoa(httpPort)}, ":"),
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
	return srv
}

//RunWebService starts up the bus location web service, and terminates on
//shutdown signal. Callers register the goroutine on wg before spawning it.
func RunWebService(log *logger.Logger,
	wg *sync.WaitGroup,
	fetchers []LineFetcher,
	httpPort int,
	shutdownSignal chan bool) {

	defer wg.Done()
	srv := createServer(log, fetchers, httpPort)
	log.Printf("starting server on port %d", httpPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("server ListenAndServe ended. %s", err)
		}
	}()

	<-shutdownSignal
	log.Printf("ending webservice on shutdown signal")
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), time.Duration(5)*time.Second)
	defer serverCancelFunc()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down webservice, error:%s", err)
	}
}

package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Waldgeist-49/Garden/scan"
)

const TimeLayout = "2006-01-02 15:04:05"

type Scanner interface {
	Scan(ctx context.Context) (scan.Addresses, error)
}

type HandlerOpts struct {
	Location *time.Location
	Now      func() time.Time
}

type HandlerOpt func(*HandlerOpts)

// WithLocation sets the timezone reported by /time.
func WithLocation(loc *time.Location) HandlerOpt {
	return func(o *HandlerOpts) {
		o.Location = loc
	}
}

func WithClock(now func() time.Time) HandlerOpt {
	return func(o *HandlerOpts) {
		o.Now = now
	}
}

// Handler serves the station over HTTP:
//
//	GET /sensors  SensorsPayload
//	GET /data     GardenPayload
//	GET /scan     responding two-wire addresses (only with a scanner)
//	GET /time     local time as 2006-01-02 15:04:05
func Handler(station *Station, scanner Scanner, opts ...HandlerOpt) http.Handler {
	config := HandlerOpts{Location: time.Local, Now: time.Now}
	for _, opt := range opts {
		opt(&config)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sensors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, station.Sensors(r.Context()))
	})
	mux.HandleFunc("GET /data", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, station.Garden(r.Context()))
	})
	if scanner != nil {
		mux.HandleFunc("GET /scan", func(w http.ResponseWriter, r *http.Request) {
			found, err := scanner.Scan(r.Context())
			if err != nil {
				slog.Warn("bus scan interrupted", "error", err)
			}
			writeJSON(w, found)
		})
	}
	mux.HandleFunc("GET /time", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(config.Now().In(config.Location).Format(TimeLayout)))
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("could not encode response", "error", err)
	}
}

// Package exporters publishes the playback metrics over HTTP and SSE.
package exporters

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/canister/internal/logging"
)

const scrapeTimeout = 5 * time.Second

// HTTPHandler serves the promauto-registered metrics for Prometheus.
// A collector that fails is logged and left out; the rest of the scrape
// is still served.
func HTTPHandler() http.Handler {
	return handlerFor(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, logging.GetLogger("metrics"))
}

func handlerFor(reg prometheus.Registerer, g prometheus.Gatherer, logger *slog.Logger) http.Handler {
	h := promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:            scrapeLog{logger},
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: 2,
		Timeout:             scrapeTimeout,
	})
	return promhttp.InstrumentMetricHandler(reg, h)
}

// scrapeLog adapts a slog.Logger to promhttp.Logger.
type scrapeLog struct {
	logger *slog.Logger
}

func (l scrapeLog) Println(v ...any) {
	l.logger.Warn("Metrics scrape error", "error", fmt.Sprint(v...))
}

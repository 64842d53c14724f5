package global

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/buildbarn/bb-blockbuffer/pkg/util"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DiagnosticsServer is a web server that exposes Prometheus metrics
// and provides health check endpoints. It can be used by the caller to
// report whether the application is still performing work.
type DiagnosticsServer struct {
	listenAddress string
	ready         atomic.Bool
	router        *mux.Router
}

// NewDiagnosticsServer creates a DiagnosticsServer that listens on the
// provided address once Serve() is called.
func NewDiagnosticsServer(listenAddress string) *DiagnosticsServer {
	ds := &DiagnosticsServer{
		listenAddress: listenAddress,
		router:        mux.NewRouter(),
	}
	ds.router.HandleFunc("/-/healthy", func(http.ResponseWriter, *http.Request) {})
	ds.router.HandleFunc("/-/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ds.ready.Load() {
			w.WriteHeader(http.StatusOK)
		} else {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
	ds.router.Handle("/metrics", promhttp.Handler())
	return ds
}

// Handler returns the HTTP handler of the diagnostics server.
func (ds *DiagnosticsServer) Handler() http.Handler {
	return ds.router
}

// Serve requests until the termination context is done.
func (ds *DiagnosticsServer) Serve(terminationContext context.Context) error {
	server := &http.Server{
		Addr:    ds.listenAddress,
		Handler: ds.router,
	}
	go func() {
		<-terminationContext.Done()
		ds.SetNotServing()
		server.Shutdown(context.Background())
	}()
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return util.StatusWrap(err, "Diagnostics server")
	}
	return nil
}

// SetReady updates the health probe to report healthy and ready.
func (ds *DiagnosticsServer) SetReady() {
	ds.ready.Store(true)
}

// SetNotServing updates the health probe to report healthy but not ready.
func (ds *DiagnosticsServer) SetNotServing() {
	ds.ready.Store(false)
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Server serves the operational endpoints of the command line client, such
// as the Prometheus metrics.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
}

func NewServer(address string) *Server {
	srv := &http.Server{
		Addr:         address,
		WriteTimeout: 90 * time.Second,
		ReadTimeout:  90 * time.Second,
	}
	apiServer := &Server{
		httpServer: srv,
	}
	apiServer.router = mux.NewRouter()
	apiServer.httpServer.Handler = apiServer.router
	return apiServer
}

// ListenAndServe starts serving in the background.
func (w *Server) ListenAndServe() {
	go func() {
		if err := w.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("[api] Server at %s stopped: %v", w.httpServer.Addr, err)
		}
	}()
	log.Infof("[api] Server started at %s", w.httpServer.Addr)
}

func (w *Server) Shutdown(ctx context.Context) error {
	return w.httpServer.Shutdown(ctx)
}

func (w *Server) Handler() http.Handler {
	return w.router
}

func (w *Server) AppendRoute(path string, handler func(http.ResponseWriter, *http.Request), methods ...string) {
	r := w.router.HandleFunc(path, LoggingMiddleware("API", handler))
	if len(methods) > 0 {
		r.Methods(methods...)
	}
}

package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/graphcompare/pkg/analysis"
	"github.com/ritzau/graphcompare/pkg/compare"
	"github.com/ritzau/graphcompare/pkg/flows"
	"github.com/ritzau/graphcompare/pkg/logging"
	"github.com/ritzau/graphcompare/pkg/output"
	"github.com/ritzau/graphcompare/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

var logger = logging.New("web")

// ReportSource provides the latest comparison report
type ReportSource interface {
	Latest() *analysis.Report
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	reports   ReportSource
}

// NewServer creates a new web server. Set the report source with
// SetReports before serving comparison endpoints.
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// status: replay only the current state to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	// report: a new subscriber only needs the latest summary
	ssePublisher.ConfigureTopic(pubsub.TopicReport, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// SetReports sets where comparison endpoints read reports from
func (s *Server) SetReports(reports ReportSource) {
	s.reports = reports
}

// Publisher returns the publisher feeding the SSE endpoints
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// Handler returns the server's HTTP handler including request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/comparison", s.handleSubscribe(pubsub.TopicReport)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/status", s.handleSubscribe(pubsub.TopicStatus)).Methods("GET")

	// API routes
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/comparison", s.handleComparison).Methods("GET")
	s.router.HandleFunc("/api/comparison/unmatched/{side}", s.handleUnmatched).Methods("GET")
	s.router.HandleFunc("/api/comparison/graph/{side}", s.handleGraph).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Subscribe before writing so a failure can still set the status
		sub, err := s.publisher.Subscribe(ctx, topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()

		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment establishes the stream (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		flush(w)
		logging.DebugContext(ctx, "sse client subscribed", "topic", topic)

		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(ctx, "error writing SSE event", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) latest() *analysis.Report {
	if s.reports == nil {
		return nil
	}
	return s.reports.Latest()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if report := s.latest(); report != nil {
		status["revision"] = report.Revision
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	report := s.latest()
	if report == nil {
		http.Error(w, "Comparison not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, http.StatusOK, output.NewDocument(report))
}

// outcome resolves the ?pair= query parameter. Without it a report
// holding exactly one pair serves that pair.
func (s *Server) outcome(w http.ResponseWriter, r *http.Request) (*analysis.Outcome, bool) {
	report := s.latest()
	if report == nil {
		http.Error(w, "Comparison not available yet", http.StatusServiceUnavailable)
		return nil, false
	}

	name := r.URL.Query().Get("pair")
	if name == "" {
		if len(report.Outcomes) != 1 {
			http.Error(w, "pair parameter required", http.StatusBadRequest)
			return nil, false
		}
		return report.Outcomes[0], true
	}

	o, ok := report.Find(name)
	if !ok {
		http.Error(w, fmt.Sprintf("no pair named %q", name), http.StatusNotFound)
		return nil, false
	}
	return o, true
}

func parseSide(w http.ResponseWriter, r *http.Request) (compare.Side, bool) {
	switch side := compare.Side(strings.ToUpper(mux.Vars(r)["side"])); side {
	case compare.SideA, compare.SideB:
		return side, true
	}
	http.Error(w, "side must be A or B", http.StatusBadRequest)
	return "", false
}

func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	side, ok := parseSide(w, r)
	if !ok {
		return
	}
	o, ok := s.outcome(w, r)
	if !ok {
		return
	}
	if o.Err != nil {
		http.Error(w, o.Err.Error(), http.StatusUnprocessableEntity)
		return
	}

	set := o.Result.UnmatchedA
	if side == compare.SideB {
		set = o.Result.UnmatchedB
	}
	records := set.Records()
	if records == nil {
		records = []flows.Record{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	side, ok := parseSide(w, r)
	if !ok {
		return
	}
	o, ok := s.outcome(w, r)
	if !ok {
		return
	}

	g := o.GraphA
	if side == compare.SideB {
		g = o.GraphB
	}
	if g == nil {
		http.Error(w, "graph was not loaded", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, r, http.StatusOK, g.View())
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	// Closing the publisher ends open SSE streams so Shutdown can finish
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sipa-dev/sipa/pkg/component"
)

// Options configures a Server.
type Options struct {
	// Version is reported by /version next to the build information.
	Version string

	// Gatherer backs /metrics.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// Timeout bounds how long a request waits for the engine loop.
	// Default: 5s
	Timeout time.Duration

	Logger *slog.Logger
}

// Server is the inspector HTTP handler.
type Server struct {
	engine  *component.Engine
	opts    Options
	hub     *Hub
	router  chi.Router
	logger  *slog.Logger
	started time.Time
}

// New creates an inspector for eng and installs its live hub on the engine.
func New(eng *component.Engine, opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = eng.Logger()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		engine:  eng,
		opts:    opts,
		hub:     NewHub(),
		logger:  opts.Logger,
		started: time.Now(),
	}
	s.hub.Install(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/version", s.handleVersion)
	r.Get("/instances", s.handleInstances)
	r.Get("/instances/{id}", s.handleInstance)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Method(http.MethodGet, "/live", s.hub)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the live event hub.
func (s *Server) Hub() *Hub { return s.hub }

// BuildInfo is the /version payload.
type BuildInfo struct {
	Version   string `json:"version"`
	Module    string `json:"module,omitempty"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Revision  string `json:"revision,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Uptime    string `json:"uptime"`
}

// ReadBuildInfo collects build information for version.
func ReadBuildInfo(version string) BuildInfo {
	info := BuildInfo{
		Version:   version,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.BuildTime = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	info := ReadBuildInfo(s.opts.Version)
	info.Uptime = time.Since(s.started).Round(time.Second).String()
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	var out []InstanceInfo
	err := s.onEngine(r.Context(), func() {
		for _, i := range s.engine.Instances() {
			out = append(out, describe(i, false))
		}
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if out == nil {
		out = []InstanceInfo{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInstance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid instance id"})
		return
	}

	var (
		info  InstanceInfo
		found bool
	)
	err = s.onEngine(r.Context(), func() {
		if i, ok := s.engine.Lookup(id); ok {
			info, found = describe(i, true), true
		}
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("instance %d not found", id)})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) onEngine(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.engine.Do(ctx, fn)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Warn("inspector request failed", "error", err)
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Package api exposes the interview coach over HTTP.
package api

import (
	"context"
	"io"
	"net/http"

	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/processor"
	"interview-insights-go/internal/types"
)

// Pipeline is the processing surface the handlers call.
type Pipeline interface {
	Upload(ctx context.Context, r io.Reader, filename string) (types.UploadResponse, error)
	Analyze(ctx context.Context, req processor.AnalyzeRequest) (types.AnalyzeResponse, error)
}

type Directory interface {
	Get(ctx context.Context, id string) (types.CandidateProfile, error)
	Ping(ctx context.Context) error
}

// Observer counts finished requests; *metrics.Metrics satisfies it.
type Observer interface {
	HTTPRequest(route, code string)
	Handler() http.Handler
}

type Options struct {
	Pipeline       Pipeline
	Directory      Directory // optional
	Metrics        Observer  // optional
	ResponsesDir   string
	MaxUploadBytes int64
	Log            *logger.Logger
}

type Server struct {
	opts Options
	log  *logger.Logger
	mux  *http.ServeMux
}

func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logger.New()
	}
	s := &Server{opts: opts, log: opts.Log.Component("api"), mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.handle("GET /healthz/db", "healthz_db", s.handleHealthDB)
	s.handle("POST /upload-audio/{$}", "upload_audio", s.handleUpload)
	s.handle("POST /upload-audio", "upload_audio", s.handleUpload)
	s.handle("POST /analyze-interview/{$}", "analyze_interview", s.handleAnalyze)
	s.handle("POST /analyze-interview", "analyze_interview", s.handleAnalyze)
	s.handle("GET /students/{id}", "students", s.handleStudent)
	s.handle("GET /responses/{name}", "responses", s.handleResponseAudio)
	if s.opts.Metrics != nil {
		s.mux.Handle("GET /metrics", s.opts.Metrics.Handler())
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

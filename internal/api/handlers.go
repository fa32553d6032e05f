package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"interview-insights-go/internal/candidates"
	"interview-insights-go/internal/processor"
	"interview-insights-go/internal/prompts"
	"interview-insights-go/internal/speech"
	"interview-insights-go/internal/storage"
	"interview-insights-go/internal/transcription"
)

// multipart bookkeeping on top of the audio itself
const multipartOverhead = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "ok")
}

func (s *Server) handleHealthDB(w http.ResponseWriter, r *http.Request) {
	if s.opts.Directory == nil {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	if err := s.opts.Directory.Ping(r.Context()); err != nil {
		s.requestLog(r).WithError(err).Warn("candidate store ping failed")
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
	}

	file, hdr, err := r.FormFile("audio")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "audio upload exceeds size limit")
			return
		}
		log.WithError(err).Warn("missing audio field")
		writeError(w, r, http.StatusBadRequest, "multipart field \"audio\" is required")
		return
	}
	defer file.Close()

	resp, err := s.opts.Pipeline.Upload(r.Context(), file, hdr.Filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req := processor.AnalyzeRequest{
		JobName:       r.FormValue("job_name"),
		StudentID:     r.FormValue("stud_id"),
		CandidateName: r.FormValue("candidate_name"),
		College:       r.FormValue("college"),
		Branch:        r.FormValue("branch"),
		Question:      r.FormValue("question"),
	}
	s.requestLog(r).WithField("job_name", req.JobName).Info("analysis requested")

	resp, err := s.opts.Pipeline.Analyze(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleStudent(w http.ResponseWriter, r *http.Request) {
	if s.opts.Directory == nil {
		writeError(w, r, http.StatusNotFound, "candidate directory is not configured")
		return
	}
	p, err := s.opts.Directory.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleResponseAudio(w http.ResponseWriter, r *http.Request) {
	path, err := speech.Resolve(s.opts.ResponsesDir, r.PathValue("name"))
	switch {
	case errors.Is(err, speech.ErrBadName):
		writeError(w, r, http.StatusBadRequest, "invalid file name")
		return
	case err != nil:
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

// fail maps a pipeline error onto a status code and logs it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := s.requestLog(r).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	writeError(w, r, status, err.Error())
}

func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, processor.ErrInvalidRequest), errors.Is(err, storage.ErrInvalidAudio):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, candidates.ErrCandidateNotFound):
		return http.StatusNotFound
	case errors.Is(err, prompts.ErrEmptyTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transcription.ErrPollTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		if l, ok := logFromContext(r); ok {
			l.WithError(err).Error("failed to write response")
		}
	}
}

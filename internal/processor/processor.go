// Package processor runs the upload and analysis flows end to end.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"interview-insights-go/internal/actionable"
	"interview-insights-go/internal/candidates"
	"interview-insights-go/internal/extractor"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/prompts"
	"interview-insights-go/internal/scoring"
	"interview-insights-go/internal/speech"
	"interview-insights-go/internal/storage"
	"interview-insights-go/internal/transcription"
	"interview-insights-go/internal/types"
)

var ErrInvalidRequest = errors.New("invalid request")

// TranscriptWaiter blocks until a named transcription job yields text.
type TranscriptWaiter interface {
	Wait(ctx context.Context, jobName string) (string, error)
}

type CandidateLookup interface {
	Get(ctx context.Context, id string) (types.CandidateProfile, error)
}

// Recorder receives outcome counts; *metrics.Metrics satisfies it.
type Recorder interface {
	Upload(outcome string)
	Analysis(outcome string, took time.Duration)
}

type Deps struct {
	Spool      *storage.AudioSpool
	Store      storage.ObjectStore
	Jobs       transcription.JobService // nil leaves job creation to the caller
	Waiter     TranscriptWaiter
	Candidates CandidateLookup // optional
	Prompts    *prompts.Set
	Analyzer   extractor.Analyzer
	Speech     speech.Synthesizer // nil disables audio responses
	Recorder   Recorder           // optional
	Log        *logger.Logger
}

type Service struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.New()
	}
	d.Log = d.Log.Component("processor")
	return &Service{Deps: d, now: time.Now}
}

// Upload spools the audio, copies it to the object store and, when a job
// service is configured, starts its transcription job.
func (s *Service) Upload(ctx context.Context, r io.Reader, filename string) (types.UploadResponse, error) {
	resp, err := s.upload(ctx, r, filename)
	s.recordUpload(err)
	return resp, err
}

func (s *Service) upload(ctx context.Context, r io.Reader, filename string) (types.UploadResponse, error) {
	saved, err := s.Spool.Save(r, storage.FormatFromName(filename))
	if err != nil {
		return types.UploadResponse{}, err
	}
	log := s.Log.With("audio_id", saved.ID).With("file", saved.Filename)

	jobName, err := s.publish(ctx, saved)
	if err != nil {
		log.WithError(err).Error("audio upload failed")
		if rmErr := s.Spool.Remove(saved); rmErr != nil {
			log.WithError(rmErr).Warn("spooled audio not removed")
		}
		return types.UploadResponse{}, err
	}

	log.WithFields(logrus.Fields{"job_name": jobName, "bytes": saved.Size}).Info("audio uploaded")
	return types.UploadResponse{
		Message: "Audio uploaded successfully",
		JobName: jobName,
		AudioID: saved.ID,
	}, nil
}

// publish copies the spooled file to the object store and starts its job.
func (s *Service) publish(ctx context.Context, saved storage.SavedAudio) (string, error) {
	f, err := os.Open(saved.Path)
	if err != nil {
		return "", fmt.Errorf("reopen spooled audio: %w", err)
	}
	err = s.Store.Upload(ctx, saved.Filename, f, saved.ContentType)
	_ = f.Close()
	if err != nil {
		return "", err
	}

	jobName := storage.DeriveJobName(saved.Filename)
	if s.Jobs != nil {
		if err := s.Jobs.StartJob(ctx, jobName, s.Store.URI(saved.Filename), saved.Format); err != nil {
			return "", err
		}
	}
	return jobName, nil
}

type AnalyzeRequest struct {
	JobName       string
	StudentID     string
	CandidateName string
	College       string
	Branch        string
	Question      string
}

func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (types.AnalyzeResponse, error) {
	start := s.now()
	resp, err := s.analyze(ctx, req)
	took := s.now().Sub(start)
	resp.DurationMs = took.Milliseconds()
	if s.Recorder != nil {
		s.Recorder.Analysis(outcomeOf(err), took)
	}
	return resp, err
}

func (s *Service) analyze(ctx context.Context, req AnalyzeRequest) (types.AnalyzeResponse, error) {
	req.JobName = strings.TrimSpace(req.JobName)
	if req.JobName == "" {
		return types.AnalyzeResponse{}, fmt.Errorf("%w: job_name is required", ErrInvalidRequest)
	}
	log := s.Log.With("job_name", req.JobName)

	candidate, err := s.resolveCandidate(ctx, req)
	if err != nil {
		return types.AnalyzeResponse{}, err
	}

	transcript, err := s.Waiter.Wait(ctx, req.JobName)
	if err != nil {
		log.WithError(err).Warn("transcription wait failed")
		return types.AnalyzeResponse{}, err
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = s.Prompts.DefaultQuestion()
	}
	prompt, err := s.Prompts.Render(prompts.Input{Transcript: transcript, Candidate: candidate, Question: question})
	if err != nil {
		return types.AnalyzeResponse{}, err
	}

	result, err := s.Analyzer.Analyze(ctx, prompt)
	if err != nil {
		log.WithError(err).WithField("analyzer", s.Analyzer.Name()).Error("model analysis failed")
		return types.AnalyzeResponse{}, err
	}

	// Ratings are relayed as the model sent them; only the coaching card
	// works from the clamped copy.
	summary := scoring.Summarize(scoring.Normalize(result.Ratings))
	resp := types.AnalyzeResponse{
		JobName:           req.JobName,
		Question:          question,
		Candidate:         candidate,
		Transcript:        transcript,
		ModelTranscript:   result.Transcript,
		Ratings:           result.Ratings,
		Feedback:          result.Feedback,
		CandidateResponse: result.CandidateResponse,
		Coaching:          actionable.Generate(summary),
	}

	if s.Speech != nil && strings.TrimSpace(resp.CandidateResponse) != "" {
		path, err := s.Speech.Synthesize(ctx, resp.CandidateResponse)
		if err != nil {
			log.WithError(err).Warn("response audio skipped")
		} else {
			resp.AudioPath = path
		}
	}

	log.WithFields(logrus.Fields{
		"overall": summary.Overall,
		"audio":   resp.AudioPath != "",
	}).Info("interview analyzed")
	return resp, nil
}

// resolveCandidate looks the student up by id, then applies request fields on top.
func (s *Service) resolveCandidate(ctx context.Context, req AnalyzeRequest) (types.CandidateProfile, error) {
	override := types.CandidateProfile{
		StudentID: strings.TrimSpace(req.StudentID),
		FullName:  strings.TrimSpace(req.CandidateName),
		College:   strings.TrimSpace(req.College),
		Branch:    strings.TrimSpace(req.Branch),
	}
	var base types.CandidateProfile
	if override.StudentID != "" && s.Candidates != nil {
		p, err := s.Candidates.Get(ctx, override.StudentID)
		if err != nil {
			return types.CandidateProfile{}, err
		}
		base = p
	}
	return base.Merge(override), nil
}

func (s *Service) recordUpload(err error) {
	if s.Recorder == nil {
		return
	}
	switch {
	case err == nil:
		s.Recorder.Upload("ok")
	case errors.Is(err, storage.ErrInvalidAudio), errors.Is(err, storage.ErrTooLarge):
		s.Recorder.Upload("invalid")
	default:
		s.Recorder.Upload("error")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, candidates.ErrCandidateNotFound):
		return "unknown_candidate"
	case errors.Is(err, transcription.ErrPollTimeout):
		return "timeout"
	case errors.Is(err, transcription.ErrJobFailed):
		return "transcription_failed"
	case errors.Is(err, prompts.ErrEmptyTranscript):
		return "empty_transcript"
	case errors.Is(err, extractor.ErrModelOutput), errors.Is(err, extractor.ErrModelRequest):
		return "model_error"
	default:
		return "error"
	}
}

package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/types"
)

var errStillRunning = errors.New("transcription still in progress")

// Poller waits for a transcription job and returns its transcript text.
type Poller struct {
	jobs    JobService
	fetcher Fetcher
	cfg     config.PollConfig
	log     *logger.Logger

	// OnAttempt, when set, receives the outcome of every status query:
	// in_progress, completed, failed or error.
	OnAttempt func(outcome string)
}

func NewPoller(jobs JobService, fetcher Fetcher, cfg config.PollConfig, log *logger.Logger) *Poller {
	return &Poller{jobs: jobs, fetcher: fetcher, cfg: cfg, log: log.Component("transcription.poller")}
}

func (p *Poller) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.Interval
	b.MaxInterval = p.cfg.MaxInterval
	b.Multiplier = p.cfg.Multiplier
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = p.cfg.MaxWait
	return b
}

func (p *Poller) observe(outcome string) {
	if p.OnAttempt != nil {
		p.OnAttempt(outcome)
	}
}

// Wait blocks until the job completes, fails, MaxWait elapses or ctx ends.
// A failed job returns ErrJobFailed without fetching anything.
func (p *Poller) Wait(ctx context.Context, jobName string) (string, error) {
	log := p.log.With("job_name", jobName)
	start := time.Now()

	var (
		uri      string
		lastErr  error
		attempts int
	)
	op := func() error {
		attempts++
		job, err := p.jobs.Job(ctx, jobName)
		if err != nil {
			p.observe("error")
			lastErr = err
			log.WithError(err).Warn("status query failed")
			return err
		}
		log.WithFields(logrus.Fields{"attempt": attempts, "status": job.Status}).Debug("polling transcription")

		if !job.Status.Terminal() {
			p.observe("in_progress")
			lastErr = errStillRunning
			return errStillRunning
		}
		if job.Status == types.JobFailed {
			p.observe("failed")
			return backoff.Permanent(fmt.Errorf("%w: %s: %s", ErrJobFailed, jobName, job.FailureReason))
		}
		p.observe("completed")
		if job.TranscriptURI == "" {
			return backoff.Permanent(fmt.Errorf("%w: job %s completed without transcript uri", ErrMalformedTranscript, jobName))
		}
		uri = job.TranscriptURI
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(p.newBackOff(), ctx))
	if err != nil {
		switch {
		case errors.Is(err, ErrJobFailed), errors.Is(err, ErrMalformedTranscript):
			return "", err
		case errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w: %s after %d attempts: %w", ErrPollTimeout, jobName, attempts, err)
		case errors.Is(err, context.Canceled):
			return "", fmt.Errorf("poll %s: %w", jobName, err)
		default:
			return "", fmt.Errorf("%w: %s after %d attempts in %s: %v",
				ErrPollTimeout, jobName, attempts, time.Since(start).Round(time.Millisecond), lastErr)
		}
	}

	log.WithFields(logrus.Fields{"attempts": attempts, "transcript_uri": uri}).Info("transcription completed, downloading text")
	data, err := p.fetcher.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	return ParseTranscript(data)
}

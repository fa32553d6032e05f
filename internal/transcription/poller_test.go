package transcription

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-insights-go/internal/config"
	"interview-insights-go/internal/logger"
	"interview-insights-go/internal/types"
)

const helloDoc = `{"results":{"transcripts":[{"transcript":"hello world"}]}}`

// scriptedJobs replays a fixed status sequence; the last entry repeats.
type scriptedJobs struct {
	mu       sync.Mutex
	statuses []types.JobStatus
	errs     []error
	calls    int
}

func (s *scriptedJobs) StartJob(context.Context, string, string, string) error { return nil }

func (s *scriptedJobs) Job(_ context.Context, name string) (types.TranscriptionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return types.TranscriptionJob{}, s.errs[i]
	}
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	job := types.TranscriptionJob{JobName: name, Status: s.statuses[i]}
	switch job.Status {
	case types.JobCompleted:
		job.TranscriptURI = "https://transcripts.example/" + name
	case types.JobFailed:
		job.FailureReason = "unsupported media"
	}
	return job, nil
}

func (s *scriptedJobs) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingFetcher struct {
	mu    sync.Mutex
	body  string
	err   error
	calls int
	uris  []string
}

func (f *countingFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.uris = append(f.uris, uri)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func fastPoll() config.PollConfig {
	return config.PollConfig{
		Interval:    time.Millisecond,
		MaxInterval: 5 * time.Millisecond,
		Multiplier:  2,
		MaxWait:     2 * time.Second,
	}
}

func testLogger() *logger.Logger {
	return logger.NewWithOutput(&bytes.Buffer{})
}

func TestWaitPollsUntilCompleted(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{types.JobInProgress, types.JobInProgress, types.JobCompleted}}
	fetcher := &countingFetcher{body: helloDoc}
	p := NewPoller(jobs, fetcher, fastPoll(), testLogger())

	var outcomes []string
	p.OnAttempt = func(o string) { outcomes = append(outcomes, o) }

	text, err := p.Wait(context.Background(), "audio_1.wav.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, 3, jobs.Calls(), "exactly three status queries")
	assert.Equal(t, 1, fetcher.calls, "exactly one transcript fetch")
	assert.Equal(t, []string{"https://transcripts.example/audio_1.wav.txt"}, fetcher.uris)
	assert.Equal(t, []string{"in_progress", "in_progress", "completed"}, outcomes)
}

func TestWaitFailedJobStopsImmediately(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{types.JobFailed}}
	fetcher := &countingFetcher{body: helloDoc}
	p := NewPoller(jobs, fetcher, fastPoll(), testLogger())

	_, err := p.Wait(context.Background(), "job")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobFailed)
	assert.Contains(t, err.Error(), "unsupported media")
	assert.Equal(t, 1, jobs.Calls())
	assert.Zero(t, fetcher.calls, "failed jobs must not fetch a transcript")
}

func TestWaitTreatsUnknownStatusAsRunning(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{"QUEUED", types.JobCompleted}}
	fetcher := &countingFetcher{body: helloDoc}
	p := NewPoller(jobs, fetcher, fastPoll(), testLogger())

	text, err := p.Wait(context.Background(), "job")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, 2, jobs.Calls())
}

func TestWaitTimesOut(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{types.JobInProgress}}
	fetcher := &countingFetcher{body: helloDoc}
	cfg := fastPoll()
	cfg.MaxWait = 30 * time.Millisecond
	p := NewPoller(jobs, fetcher, cfg, testLogger())

	start := time.Now()
	_, err := p.Wait(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Greater(t, jobs.Calls(), 1)
	assert.Zero(t, fetcher.calls)
}

func TestWaitHonoursContextCancellation(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{types.JobInProgress}}
	cfg := fastPoll()
	cfg.Interval = 50 * time.Millisecond
	cfg.MaxInterval = 50 * time.Millisecond
	cfg.MaxWait = time.Minute
	p := NewPoller(jobs, &countingFetcher{}, cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := p.Wait(ctx, "job")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitDeadlineIsPollTimeout(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{types.JobInProgress}}
	cfg := fastPoll()
	cfg.MaxWait = time.Minute
	p := NewPoller(jobs, &countingFetcher{}, cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx, "job")
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitRetriesStatusErrors(t *testing.T) {
	jobs := &scriptedJobs{
		statuses: []types.JobStatus{types.JobInProgress, types.JobInProgress, types.JobCompleted},
		errs:     []error{errors.New("throttled"), nil, nil},
	}
	fetcher := &countingFetcher{body: helloDoc}
	p := NewPoller(jobs, fetcher, fastPoll(), testLogger())

	text, err := p.Wait(context.Background(), "job")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, 3, jobs.Calls())
}

func TestWaitPropagatesFetchAndParseErrors(t *testing.T) {
	jobs := &scriptedJobs{statuses: []types.JobStatus{types.JobCompleted}}
	p := NewPoller(jobs, &countingFetcher{err: ErrTranscriptFetch}, fastPoll(), testLogger())
	_, err := p.Wait(context.Background(), "job")
	assert.ErrorIs(t, err, ErrTranscriptFetch)

	jobs = &scriptedJobs{statuses: []types.JobStatus{types.JobCompleted}}
	p = NewPoller(jobs, &countingFetcher{body: `{"status":"COMPLETED"}`}, fastPoll(), testLogger())
	_, err = p.Wait(context.Background(), "job")
	assert.ErrorIs(t, err, ErrMalformedTranscript)
}

type noURIJobs struct{ scriptedJobs }

func (n *noURIJobs) Job(_ context.Context, name string) (types.TranscriptionJob, error) {
	return types.TranscriptionJob{JobName: name, Status: types.JobCompleted}, nil
}

func TestWaitCompletedWithoutURI(t *testing.T) {
	fetcher := &countingFetcher{body: helloDoc}
	p := NewPoller(&noURIJobs{}, fetcher, fastPoll(), testLogger())
	_, err := p.Wait(context.Background(), "job")
	assert.ErrorIs(t, err, ErrMalformedTranscript)
	assert.Zero(t, fetcher.calls)
}

func TestWaitWithMockBackend(t *testing.T) {
	m := NewMockBackend()
	p := NewPoller(m, m, fastPoll(), testLogger())
	text, err := p.Wait(context.Background(), "audio_x.wav.txt")
	require.NoError(t, err)
	assert.Equal(t, MockTranscript, text)
}

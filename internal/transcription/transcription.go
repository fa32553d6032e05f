package transcription

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	ttypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"interview-insights-go/internal/types"
)

var (
	ErrJobFailed           = errors.New("transcription job failed")
	ErrPollTimeout         = errors.New("transcription did not complete in time")
	ErrMalformedTranscript = errors.New("malformed transcript")
	ErrTranscriptFetch     = errors.New("transcript fetch failed")
)

// JobService is the remote speech-to-text job API.
type JobService interface {
	StartJob(ctx context.Context, jobName, mediaURI, format string) error
	Job(ctx context.Context, jobName string) (types.TranscriptionJob, error)
}

type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// AWSJobService talks to Amazon Transcribe.
type AWSJobService struct {
	client       transcribeAPI
	languageCode string
}

func NewAWSJobService(awsCfg aws.Config, languageCode string) *AWSJobService {
	return &AWSJobService{client: transcribe.NewFromConfig(awsCfg), languageCode: languageCode}
}

func (s *AWSJobService) StartJob(ctx context.Context, jobName, mediaURI, format string) error {
	_, err := s.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		Media:                &ttypes.Media{MediaFileUri: aws.String(mediaURI)},
		MediaFormat:          ttypes.MediaFormat(format),
		LanguageCode:         ttypes.LanguageCode(s.languageCode),
	})
	if err != nil {
		return fmt.Errorf("start transcription job %s: %w", jobName, err)
	}
	return nil
}

func (s *AWSJobService) Job(ctx context.Context, jobName string) (types.TranscriptionJob, error) {
	out, err := s.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		return types.TranscriptionJob{}, fmt.Errorf("get transcription job %s: %w", jobName, err)
	}
	if out.TranscriptionJob == nil {
		return types.TranscriptionJob{}, fmt.Errorf("get transcription job %s: empty response", jobName)
	}
	return fromAWS(jobName, out.TranscriptionJob), nil
}

func fromAWS(jobName string, j *ttypes.TranscriptionJob) types.TranscriptionJob {
	job := types.TranscriptionJob{JobName: jobName}
	switch j.TranscriptionJobStatus {
	case ttypes.TranscriptionJobStatusCompleted:
		job.Status = types.JobCompleted
		if j.Transcript != nil {
			job.TranscriptURI = aws.ToString(j.Transcript.TranscriptFileUri)
		}
	case ttypes.TranscriptionJobStatusFailed:
		job.Status = types.JobFailed
		job.FailureReason = aws.ToString(j.FailureReason)
	default:
		// QUEUED and IN_PROGRESS
		job.Status = types.JobInProgress
	}
	return job
}

var _ JobService = (*AWSJobService)(nil)

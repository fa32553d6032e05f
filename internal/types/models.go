package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Score is a 0-10 rating. Models are asked for numbers but regularly answer
// with strings such as "7" or "7/10", so both decode.
type Score float64

func (s *Score) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*s = Score(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("score: expected number or string, got %s", string(b))
	}
	str = strings.TrimSpace(str)
	if i := strings.Index(str, "/"); i >= 0 {
		str = strings.TrimSpace(str[:i])
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fmt.Errorf("score: %q is not numeric", str)
	}
	*s = Score(f)
	return nil
}

type Ratings struct {
	Clarity       Score `json:"clarity"`
	Structure     Score `json:"structure"`
	Confidence    Score `json:"confidence"`
	Relevance     Score `json:"relevance"`
	Communication Score `json:"communication"`
	OverallRating Score `json:"overall_rating"`
}

type Feedback struct {
	Strengths    string `json:"strengths"`
	Improvements string `json:"improvements"`
	Suggestions  string `json:"suggestions"`
}

// AnalysisResult is the structured output requested from the model.
type AnalysisResult struct {
	Transcript        string   `json:"transcript"`
	Ratings           Ratings  `json:"ratings"`
	Feedback          Feedback `json:"feedback"`
	CandidateResponse string   `json:"candidate_response"`
}

type JobStatus string

const (
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// Terminal reports whether polling can stop at this status.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type TranscriptionJob struct {
	JobName       string    `json:"job_name"`
	Status        JobStatus `json:"status"`
	TranscriptURI string    `json:"transcript_uri,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

type CandidateProfile struct {
	StudentID string `json:"student_id,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	College   string `json:"college,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

// Merge returns p with every non-empty field of override applied on top.
func (p CandidateProfile) Merge(override CandidateProfile) CandidateProfile {
	if override.StudentID != "" {
		p.StudentID = override.StudentID
	}
	if override.FullName != "" {
		p.FullName = override.FullName
	}
	if override.College != "" {
		p.College = override.College
	}
	if override.Branch != "" {
		p.Branch = override.Branch
	}
	return p
}

type UploadResponse struct {
	Message string `json:"message"`
	JobName string `json:"job_name"`
	AudioID string `json:"audio_id"`
}

type CoachingCard struct {
	FocusArea string `json:"focus_area"`
	Action    string `json:"action"`
	Impact    string `json:"impact"`
}

// AnalyzeResponse is returned by /analyze-interview/.
type AnalyzeResponse struct {
	JobName           string           `json:"job_name"`
	Question          string           `json:"question"`
	Candidate         CandidateProfile `json:"candidate"`
	Transcript        string           `json:"transcript"`
	ModelTranscript   string           `json:"model_transcript,omitempty"`
	Ratings           Ratings          `json:"ratings"`
	Feedback          Feedback         `json:"feedback"`
	CandidateResponse string           `json:"candidate_response"`
	AudioPath         string           `json:"audio_path,omitempty"`
	Coaching          CoachingCard     `json:"coaching"`
	DurationMs        int64            `json:"duration_ms"`
}

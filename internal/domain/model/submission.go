package model

import "time"

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusAccepted SubmissionStatus = "accepted"
	StatusWrong    SubmissionStatus = "wrong"
	StatusError    SubmissionStatus = "error"
)

// Submission is created in pending status before the judge batch goes out and
// mutated exactly once when aggregation completes. Runtime is the sum of
// per-case times in seconds, Memory the per-case peak in KB.
type Submission struct {
	ID              string           `json:"_id"`
	UserID          string           `json:"userId"`
	ProblemID       string           `json:"problemId"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Status          SubmissionStatus `json:"status"`
	TestCasesTotal  int              `json:"testCasesTotal"`
	TestCasesPassed int              `json:"testCasesPassed"`
	Runtime         float64          `json:"runtime"`
	Memory          int              `json:"memory"`
	ErrorMessage    *string          `json:"errorMessage"`
	CreatedAt       time.Time        `json:"createdAt"`
}

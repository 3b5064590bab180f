package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TestCase is a single input/output pair. Visible cases carry an explanation
// shown in the problem statement; hidden cases never leave the server.
type TestCase struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// StartCode is the per-language editor stub handed to the frontend.
type StartCode struct {
	Language    string `json:"language"`
	InitialCode string `json:"initialCode"`
}

// ReferenceSolution is a known-good solution used to validate test data on
// problem create/update.
type ReferenceSolution struct {
	Language     string `json:"language"`
	CompleteCode string `json:"completeCode"`
}

type Problem struct {
	ID                 string              `json:"_id"`
	Title              string              `json:"title"`
	Slug               string              `json:"slug"`
	Description        string              `json:"description"`
	Difficulty         Difficulty          `json:"difficulty"`
	Tags               []string            `json:"tags"`
	VisibleTestCases   []TestCase          `json:"visibleTestCases"`
	HiddenTestCases    []TestCase          `json:"hiddenTestCases,omitempty"`
	StartCode          []StartCode         `json:"startCode"`
	ReferenceSolutions []ReferenceSolution `json:"referenceSolution,omitempty"`
	CreatorID          string              `json:"problemCreator"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// ProblemSummary is the listing projection: no statements, no test data.
type ProblemSummary struct {
	ID         string     `json:"_id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
}

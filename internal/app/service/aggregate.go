package service

import (
	"strconv"

	"leetlab/internal/domain/model"
	"leetlab/internal/judge"
)

// AggregateResult is the roll-up of one graded batch.
type AggregateResult struct {
	Status          model.SubmissionStatus
	TestCasesPassed int
	Runtime         float64
	Memory          int
	ErrorMessage    *string
}

// aggregateVerdicts folds per-case verdicts into a single result. Accepted
// cases (status id 3) contribute to the pass count, summed runtime and peak
// memory; status id 4 classifies the batch as "error", any other non-match as
// "wrong". The LAST non-accepted verdict wins, and its stderr is taken as the
// message even when nil. Downstream consumers depend on this exact tie-break,
// so do not normalize it to first-failure-wins.
func aggregateVerdicts(verdicts []judge.Verdict) AggregateResult {
	res := AggregateResult{Status: model.StatusAccepted}

	for _, v := range verdicts {
		switch {
		case v.StatusID == judge.StatusIDAccepted:
			res.TestCasesPassed++
			if t, err := strconv.ParseFloat(v.Time, 64); err == nil {
				res.Runtime += t
			}
			if v.Memory > res.Memory {
				res.Memory = v.Memory
			}
		case v.StatusID == 4:
			res.Status = model.StatusError
			res.ErrorMessage = v.Stderr
		default:
			res.Status = model.StatusWrong
			res.ErrorMessage = v.Stderr
		}
	}
	return res
}

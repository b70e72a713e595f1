package model

import (
	"fmt"

	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

const (
	// MaxReportedErrors caps the per-item error strings in a response
	MaxReportedErrors = 10
	// MaxReportedUnbans caps the unbanned user list in a response
	MaxReportedUnbans = 20
)

// BatchTarget is one member or ban visited by the bulk engine
type BatchTarget struct {
	UserID types.UserID
	Label  string
	// Satisfied means the item is already in the desired state
	Satisfied bool
}

// ItemFailure records one failed mutation
type ItemFailure struct {
	ItemID types.UserID
	Label  string
	Verb   string
	Reason string
}

// String renders the failure in the response format
func (f ItemFailure) String() string {
	return fmt.Sprintf("failed to %s %s: %s", f.Verb, f.displayName(), f.Reason)
}

func (f ItemFailure) displayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ItemID.String()
}

// BatchResult accumulates outcomes of one bulk run
type BatchResult struct {
	Total        int
	SuccessCount int
	SkipCount    int
	ErrorCount   int
	Failures     []ItemFailure
	Succeeded    []BatchTarget
}

// NewBatchResult creates an empty result for total items
func NewBatchResult(total int) *BatchResult {
	return &BatchResult{
		Total:     total,
		Failures:  []ItemFailure{},
		Succeeded: []BatchTarget{},
	}
}

// RecordSkip counts an item that needed no change
func (r *BatchResult) RecordSkip() {
	r.SkipCount++
}

// RecordSuccess counts a mutated item
func (r *BatchResult) RecordSuccess(target BatchTarget) {
	r.SuccessCount++
	r.Succeeded = append(r.Succeeded, target)
}

// RecordFailure counts a failed item and keeps its reason
func (r *BatchResult) RecordFailure(failure ItemFailure) {
	r.ErrorCount++
	r.Failures = append(r.Failures, failure)
}

// Processed returns how many items reached an outcome
func (r *BatchResult) Processed() int {
	return r.SuccessCount + r.SkipCount + r.ErrorCount
}

// ErrorMessages returns at most limit rendered failures
func (r *BatchResult) ErrorMessages(limit int) []string {
	n := min(len(r.Failures), limit)
	msgs := make([]string, 0, n)
	for _, f := range r.Failures[:n] {
		msgs = append(msgs, f.String())
	}
	return msgs
}

// SucceededLabels returns at most limit labels of mutated items
func (r *BatchResult) SucceededLabels(limit int) []string {
	n := min(len(r.Succeeded), limit)
	labels := make([]string, 0, n)
	for _, t := range r.Succeeded[:n] {
		if t.Label != "" {
			labels = append(labels, t.Label)
		} else {
			labels = append(labels, t.UserID.String())
		}
	}
	return labels
}

package core

// IssueCreationResult is the per-issue outcome of create_issues_bulk.
// Results are emitted in input order, one per requested issue.
type IssueCreationResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key,omitempty"`
	ID      string `json:"id,omitempty"`
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// BulkResponse aggregates a bulk creation call.
type BulkResponse struct {
	Status    string                `json:"status"`
	Total     int                   `json:"total"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Results   []IssueCreationResult `json:"results"`
}

// DeriveBulkStatus summarizes a completed bulk call.
func DeriveBulkStatus(total, errCount int) string {
	if errCount <= 0 {
		return "ok"
	}
	if errCount == total {
		return "fail"
	}
	return "partial"
}

// NewBulkResponse assembles the aggregate view over ordered results.
func NewBulkResponse(results []IssueCreationResult) BulkResponse {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	return BulkResponse{
		Status:    DeriveBulkStatus(len(results), failed),
		Total:     len(results),
		Succeeded: len(results) - failed,
		Failed:    failed,
		Results:   results,
	}
}

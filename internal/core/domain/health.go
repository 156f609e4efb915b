package domain

// CheckStatus is the outcome of one connectivity or tooling check.
type CheckStatus string

// Check outcomes.
const (
	CheckOK      CheckStatus = "ok"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// CheckResult reports one check of an external dependency.
type CheckResult struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// HasFailures reports whether any check failed.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == CheckFailed {
			return true
		}
	}
	return false
}

package domain

import "time"

// BatchResult summarizes one run of a batch job. Per-record failures are
// counted, not returned.
type BatchResult struct {
	Job        string    `json:"job"`
	Scanned    int       `json:"scanned"`
	Changed    int       `json:"changed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Merge folds the counters of other into r.
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	r.Scanned += other.Scanned
	r.Changed += other.Changed
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Outcome is the three-way result of processing one item.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// ItemRecord describes one processed file or URL. The runner hands it to the
// ledger after every item.
type ItemRecord struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	SourceName string        `json:"source_name" yaml:"source_name"`
	SourceKind SourceKind    `json:"source_kind" yaml:"source_kind"`
	Input      string        `json:"input" yaml:"input"`
	OutputPath string        `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Outcome    Outcome       `json:"outcome" yaml:"outcome"`
	Bytes      int64         `json:"bytes" yaml:"bytes"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// RunRecord summarises one batch run.
type RunRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Tool       ToolName  `json:"tool" yaml:"tool"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Converted  int       `json:"converted" yaml:"converted"`
	Failed     int       `json:"failed" yaml:"failed"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
}

// Total returns the number of items the run processed.
func (r RunRecord) Total() int {
	return r.Converted + r.Failed + r.Skipped
}

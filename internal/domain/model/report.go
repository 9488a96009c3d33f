package model

import "time"

// Report is the record a reporter assembles step by step. Once the proof
// link is stored and the conversation state is cleared it is the pending
// moderation record for that reporter.
type Report struct {
	ID          string     `json:"id"`
	ReporterID  int64      `json:"reporter_id"`
	Target      string     `json:"target"`
	Description string     `json:"description"`
	Amount      string     `json:"amount"`
	ProofLink   string     `json:"proof_link"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

func (r Report) Submitted() bool {
	return r.SubmittedAt != nil
}

// Complete reports whether every field needed for moderation is filled.
func (r Report) Complete() bool {
	return r.Target != "" && r.Description != "" && r.Amount != "" && r.ProofLink != ""
}

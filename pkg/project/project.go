// Package project persists sketch projects and their run history.
//
// Projects map a name to a sketch location and board choice so repeated runs
// don't need the full flag set. Run records are append-only and form the
// audit trail surfaced by "sketchforge project history".
package project

import (
	"time"
)

// Project is a named sketch plus per-project defaults.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SketchPath string    `json:"sketch_path"`
	Board      string    `json:"board"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RunRecord is one completed compile-fix run.
type RunRecord struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	State     string        `json:"state"`
	Attempts  int           `json:"attempts"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Package models holds the bun-mapped persistence records for the
// storage package, mirroring the teacher's storage/models split
// (one file per aggregate, a shared jsonb-scalar idiom).
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// IntGrid is a jsonb-backed NxN board snapshot, the same
// Scan/Value-over-json.Marshal shape the teacher gives its JSONBMap
// column type.
type IntGrid [][]int

func (g IntGrid) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	return json.Marshal(g)
}

func (g *IntGrid) Scan(src any) error {
	if src == nil {
		*g = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("IntGrid.Scan: unsupported source type %T", src)
	}
	return json.Unmarshal(raw, g)
}

// SolutionModel is the persisted record of one job's final, fully
// solved board.
type SolutionModel struct {
	bun.BaseModel `bun:"table:distsudoku_solutions,alias:sol"`

	JobID    string    `bun:"job_id,pk" json:"job_id"`
	Size     int       `bun:"size,notnull" json:"size"`
	Strategy string    `bun:"strategy,notnull" json:"strategy"`
	Board    IntGrid   `bun:"board,type:jsonb,notnull" json:"board"`
	SolvedAt time.Time `bun:"solved_at,notnull,default:current_timestamp" json:"solved_at"`
}

// TableName returns the table name for SolutionModel.
func (SolutionModel) TableName() string {
	return "distsudoku_solutions"
}

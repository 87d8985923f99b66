// Package store defines the RunStore interface for archiving simulation
// runs and their time series.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// ErrRunNotFound is returned when no stored run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// ErrAmbiguousID is returned when an ID prefix matches more than one run.
var ErrAmbiguousID = errors.New("run id prefix is ambiguous")

// RunRecord is one archived simulation run.
type RunRecord struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Seed      int64           `json:"seed"`
	Network   string          `json:"network"` // "random", "ring", "gexf"
	Nodes     int             `json:"nodes"`
	Edges     int             `json:"edges"`
	Outbreak  []int           `json:"outbreak"`
	Params    epidemic.Params `json:"params"`

	// Steps is the number of steps after step 0.
	Steps int `json:"steps"`

	// Series holds one snapshot per collected step. ListRuns leaves it nil.
	Series []epidemic.Snapshot `json:"series,omitempty"`
}

// Final returns the last snapshot of the series, or the zero Snapshot.
func (r *RunRecord) Final() epidemic.Snapshot {
	if len(r.Series) == 0 {
		return epidemic.Snapshot{}
	}
	return r.Series[len(r.Series)-1]
}

// RunStore archives simulation runs.
type RunStore interface {
	// SaveRun stores rec and its series. An empty rec.ID is assigned a new
	// UUID; the stored ID is returned.
	SaveRun(ctx context.Context, rec RunRecord) (string, error)

	// ListRuns returns up to limit runs, newest first, without series.
	// limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// GetRun returns the run whose ID equals or starts with id, series
	// included.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// DeleteRun removes a run and its series.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}

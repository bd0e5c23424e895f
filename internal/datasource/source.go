// Package datasource fetches the ordered raw audit records for an
// extraction from the uploaded-data store or from on-disk output files.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// ErrNoData is returned when no candidate source yields records.
var ErrNoData = errors.New("no audit data found")

// Source returns the ordered raw records for one extraction identifier.
type Source interface {
	Fetch(ctx context.Context, extractionID string) ([]models.RawRecord, error)
}

// Chain tries sources in order and returns the first non-empty result.
type Chain struct {
	sources []Source
}

// NewChain builds a chain over the given sources.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// Fetch walks the chain; a source returning ErrNoData falls through to
// the next one.
func (c *Chain) Fetch(ctx context.Context, extractionID string) ([]models.RawRecord, error) {
	for _, src := range c.sources {
		records, err := src.Fetch(ctx, extractionID)
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, fmt.Errorf("extraction %s: %w", extractionID, ErrNoData)
}

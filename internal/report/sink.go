// Package report serializes inventory records and world totals: CSV
// listings, a zstd JSONL record stream and a JSON run summary.
package report

import (
	"errors"

	"worldinv/internal/inventory"
)

// Sink consumes records as they are discovered and the totals once at the
// end of a run.
type Sink interface {
	WriteRecord(r inventory.Record) error
	WriteTotals(buckets []inventory.Bucket) error
	Close() error
}

// Multi fans out to several sinks in order; the first error wins.
type Multi []Sink

func (m Multi) WriteRecord(r inventory.Record) error {
	for _, s := range m {
		if err := s.WriteRecord(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) WriteTotals(buckets []inventory.Bucket) error {
	for _, s := range m {
		if err := s.WriteTotals(buckets); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, even after a failure.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

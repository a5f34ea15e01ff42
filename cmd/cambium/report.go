package main

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/farcloser/cambium"
	"github.com/farcloser/cambium/internal/output"
)

// writeReport streams the batch as JSON lines to path and to path.gz at once.
// Records come first, in input order, followed by a single summary line.
func writeReport(path string, result *cambium.BatchResult) (err error) {
	plain, err := os.Create(path) //nolint:gosec // user-chosen report location
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}

	packed, err := os.Create(path + ".gz") //nolint:gosec // sibling of the report
	if err != nil {
		return errors.Join(fmt.Errorf("creating compressed report: %w", err), plain.Close())
	}

	zipped := gzip.NewWriter(packed)

	defer func() {
		err = errors.Join(err, zipped.Close(), packed.Close(), plain.Close())
	}()

	return encodeReport(io.MultiWriter(plain, zipped), result)
}

func encodeReport(dst io.Writer, result *cambium.BatchResult) error {
	enc := json.NewEncoder(dst)

	for idx := range result.Records {
		if err := enc.Encode(output.RecordToMap(&result.Records[idx])); err != nil {
			return fmt.Errorf("writing record for %s: %w", result.Records[idx].Input, err)
		}
	}

	summary := map[string]any{
		"summary": map[string]any{
			"files_total":     len(result.Records),
			"files_processed": result.FilesProcessed,
			"files_failed":    result.FilesFailed,
		},
	}

	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return nil
}

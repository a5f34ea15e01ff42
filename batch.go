package cambium

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job is one file of a batch.
type Job struct {
	Input  string
	Output string
}

// FileRecord is the outcome of one job. Err is nil on success.
type FileRecord struct {
	Input      string
	Output     string
	Err        error
	Result     *Result
	InputSize  int64
	OutputSize int64
	Elapsed    time.Duration
}

// OK reports whether the file was mastered.
func (r *FileRecord) OK() bool {
	return r.Err == nil
}

// BatchResult summarizes a batch. Records holds one entry per job, in job order.
type BatchResult struct {
	FilesProcessed int
	FilesFailed    int
	Records        []FileRecord
	TotalTime      time.Duration
	AvgTimePerFile time.Duration
}

// Processor masters a single job.
type Processor func(ctx context.Context, job Job) FileRecord

// BatchOptions configures RunBatch.
type BatchOptions struct {
	// Workers bounds the number of files processed at once (default: number of CPUs).
	Workers int
	// OnProgress is called after every finished job. Calls never overlap.
	OnProgress func(done, total int, record *FileRecord)
}

// Processor returns a Processor mastering jobs with this pipeline.
func (p *Pipeline) Processor() Processor {
	return func(ctx context.Context, job Job) FileRecord {
		record := FileRecord{Input: job.Input, Output: job.Output}

		result, err := p.MasterFile(ctx, job.Input, job.Output)
		if err != nil {
			record.Err = err

			return record
		}

		record.Result = result.Result
		record.InputSize = result.Source.Size
		record.OutputSize = result.OutputSize
		record.Elapsed = result.Elapsed

		return record
	}
}

// RunBatch runs process over jobs with a bounded number of workers.
// A failing file is recorded and never stops the others. Cancelling ctx stops dispatching:
// files already started run to completion, and files never started are recorded with an
// error wrapping ErrNotDispatched and the context error.
func RunBatch(ctx context.Context, jobs []Job, process Processor, opts BatchOptions) *BatchResult {
	start := time.Now()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	records := make([]FileRecord, len(jobs))

	var (
		processed atomic.Int64
		failed    atomic.Int64
		done      int
		progress  sync.Mutex
		group     errgroup.Group
	)

	sem := make(chan struct{}, workers)
	inFlight := context.WithoutCancel(ctx)
	dispatched := 0

dispatch:
	for idx, job := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		// A slot may win the race against cancellation.
		if ctx.Err() != nil {
			<-sem

			break dispatch
		}

		dispatched = idx + 1

		group.Go(func() error {
			defer func() { <-sem }()

			jobStart := time.Now()
			record := process(inFlight, job)

			if record.Elapsed == 0 {
				record.Elapsed = time.Since(jobStart)
			}

			records[idx] = record

			if record.OK() {
				processed.Add(1)
			} else {
				failed.Add(1)
				slog.Warn("cambium.RunBatch", "file", job.Input, "error", record.Err)
			}

			if opts.OnProgress != nil {
				progress.Lock()
				done++
				opts.OnProgress(done, len(jobs), &records[idx])
				progress.Unlock()
			}

			return nil
		})
	}

	_ = group.Wait()

	for idx := dispatched; idx < len(jobs); idx++ {
		records[idx] = FileRecord{
			Input:  jobs[idx].Input,
			Output: jobs[idx].Output,
			Err:    fmt.Errorf("%w: %w", ErrNotDispatched, context.Cause(ctx)),
		}

		failed.Add(1)
	}

	result := &BatchResult{
		FilesProcessed: int(processed.Load()),
		FilesFailed:    int(failed.Load()),
		Records:        records,
		TotalTime:      time.Since(start),
	}

	if result.FilesProcessed > 0 {
		var busy time.Duration

		for idx := range records {
			if records[idx].OK() {
				busy += records[idx].Elapsed
			}
		}

		result.AvgTimePerFile = busy / time.Duration(result.FilesProcessed)
	}

	return result
}

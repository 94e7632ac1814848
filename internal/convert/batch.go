package convert

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cleared-dev/cfonb120/internal/logger"
	"github.com/cleared-dev/cfonb120/internal/output"
	"github.com/cleared-dev/cfonb120/internal/rows"
	"github.com/cleared-dev/cfonb120/internal/runlog"
)

// FileOutcome is the result of converting one inbox file.
type FileOutcome struct {
	Input  string
	Output string
	Result *Result
	Err    error
}

// BatchResult lists outcomes in inbox order.
type BatchResult struct {
	Outcomes []FileOutcome
}

// Failed returns the outcomes that did not convert.
func (b BatchResult) Failed() []FileOutcome {
	var out []FileOutcome
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// BatchOptions locates the batch directories. Relative paths are resolved against Root.
type BatchOptions struct {
	Root    string
	Inbox   string
	Outbox  string
	Workers int
}

func (o BatchOptions) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.Root, p)
}

// ConvertDir converts every supported file in the inbox with a bounded worker pool.
// Converted files move to inbox/processed; failures stay in place. Every file gets a
// run log entry. Cancelling ctx stops workers from picking up new files.
func (s *Service) ConvertDir(ctx context.Context, opts BatchOptions) (BatchResult, error) {
	inbox := opts.resolve(opts.Inbox)
	outbox := opts.resolve(opts.Outbox)

	files, err := s.registry.Scan(inbox)
	if err != nil {
		return BatchResult{}, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, max(len(files), 1))

	outcomes := make([]FileOutcome, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.convertOne(ctx, opts.Root, inbox, outbox, files[i])
			}
		}()
	}

feed:
	for i := range files {
		select {
		case <-ctx.Done():
			for j := i; j < len(files); j++ {
				outcomes[j] = FileOutcome{Input: files[j].Path, Err: ctx.Err()}
			}
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return BatchResult{Outcomes: outcomes}, nil
}

func (s *Service) convertOne(ctx context.Context, root, inbox, outbox string, f rows.FileInfo) FileOutcome {
	log := logger.FromContext(ctx).With("file", f.Name)
	outPath := output.PathFor(outbox, f.Name)
	outcome := FileOutcome{Input: f.Path, Output: outPath}

	res, err := s.ConvertFile(ctx, f.Path, outPath)
	if err == nil {
		err = rows.MarkProcessed(inbox, f.Name)
	}
	outcome.Result, outcome.Err = res, err

	entry := runlog.Entry{
		Timestamp: time.Now(),
		Input:     f.Path,
		Status:    runlog.StatusOK,
	}
	if res != nil {
		entry.RunID = res.RunID
		entry.Transactions = res.Transactions
		entry.Records = res.Records
	}
	if err != nil {
		entry.Status = runlog.StatusFailed
		entry.Error = err.Error()
		outcome.Output = ""
		log.Error("conversion failed", "error", err)
	} else {
		entry.Output = outPath
	}
	if lerr := runlog.Append(root, []runlog.Entry{entry}); lerr != nil {
		log.Warn("writing run log", "error", lerr)
	}
	return outcome
}

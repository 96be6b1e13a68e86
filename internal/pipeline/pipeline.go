// Package pipeline drives one compiler run: it drains the record stream,
// normalizes records on worker goroutines and feeds the session index
// through a single writer. Normalization itself is pure per record; the
// index is the only shared-mutable state and is touched by one goroutine.
package pipeline

import (
	"bufio"
	"context"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"rustmsg/internal/diag"
	"rustmsg/internal/explain"
	"rustmsg/internal/index"
	"rustmsg/internal/render"
	"rustmsg/internal/rustc"
	"rustmsg/internal/span"
	"rustmsg/internal/trace"
)

// maxLineBytes bounds one stream line. Отдельные диагностики с длинными
// rendered-блоками легко переваливают за дефолтный лимит bufio.Scanner.
const maxLineBytes = 4 * 1024 * 1024

// Options configure one run.
type Options struct {
	Session index.SessionID
	// BasePath is the cwd the compiler ran in, for resolving relative span
	// paths.
	BasePath string
	// TargetPath is the best-guess root source file of the target. May be "".
	TargetPath   string
	HideWarnings bool
	LinkDistance uint32
	// Jobs is the worker count; 0 picks NumCPU.
	Jobs int
	// Sink receives diagnostics that have no addressable location. May be nil.
	Sink diag.Sink
	// Explain, when set, records and supplies long-form explanation
	// knowledge for learn-more links.
	Explain  *explain.Registry
	Progress ProgressSink
	Tracer   trace.Tracer
}

// Summary are the counters of one drained run.
type Summary struct {
	Records   int
	Inserted  int
	Filtered  int
	Malformed int
	Cancelled bool
}

type job struct {
	seq  uint64
	line []byte
}

type result struct {
	seq  uint64
	tree *diag.Tree
	err  error
}

// Run drains r until EOF or cancellation. On clean EOF the run is finished
// and the index sorted; on cancellation the partial results stay but the run
// is marked cancelled so late records are discarded.
func Run(ctx context.Context, idx *index.Index, r io.Reader, opts Options) (Summary, error) {
	jobsN := opts.Jobs
	if jobsN <= 0 {
		jobsN = runtime.NumCPU()
	}
	linkDistance := opts.LinkDistance
	if linkDistance == 0 {
		linkDistance = diag.DefaultLinkDistance
	}

	builder := &diag.Builder{
		Resolver:     span.NewResolver(opts.BasePath),
		Target:       opts.TargetPath,
		HideWarnings: opts.HideWarnings,
		Sink:         opts.Sink,
		Tracer:       opts.Tracer,
	}
	var knownExplanation func(string) bool
	if opts.Explain != nil {
		knownExplanation = opts.Explain.Known
	}

	gen := idx.RunStarted(opts.Session)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan result, 2*jobsN)

	// Reader: one goroutine splits the stream into lines.
	g.Go(func() error {
		defer close(jobs)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		var seq uint64
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case jobs <- job{seq: seq, line: line}:
				seq++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return scanner.Err()
	})

	// Workers: decode, build, link, render. Pure per record.
	for i := 0; i < jobsN; i++ {
		g.Go(func() error {
			for j := range jobs {
				res := result{seq: j.seq}
				msg, err := rustc.Decode(j.line)
				switch {
				case err != nil:
					trace.Anomalyf(opts.Tracer, "decode", "%v", err)
					res.err = err
				case msg == nil:
					// non-diagnostic line, filtered
				default:
					if opts.Explain != nil && msg.Code != nil {
						opts.Explain.Observe(msg.Code.Code, msg.Code.Explanation != "")
					}
					if tree := builder.Build(msg); tree != nil {
						diag.CrossLink(tree, linkDistance)
						render.Apply(tree, render.Options{KnownExplanation: knownExplanation})
						res.tree = tree
					}
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		// Wait is safe to call again below; here it only gates the close.
		_ = g.Wait()
		close(results)
	}()

	// Single writer: re-establish emission order by sequence number, then
	// insert. Deterministic insert order keeps de-duplication stable.
	var summary Summary
	pending := make(map[uint64]result)
	var next uint64
	insert := func(res result) {
		summary.Records++
		switch {
		case res.err != nil:
			summary.Malformed++
			emit(opts.Progress, Event{Status: StatusError, Err: res.err})
		case res.tree == nil:
			summary.Filtered++
			emit(opts.Progress, Event{Status: StatusFiltered})
		case idx.Insert(opts.Session, gen, res.tree):
			summary.Inserted++
			primary := res.tree.Primary()
			emit(opts.Progress, Event{
				File:     primary.Path,
				Severity: primary.Severity,
				Status:   StatusInserted,
			})
		default:
			// duplicate or stale generation
			summary.Filtered++
			emit(opts.Progress, Event{Status: StatusFiltered})
		}
	}
	for res := range results {
		pending[res.seq] = res
		for {
			buffered, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			insert(buffered)
			next++
		}
	}

	err := g.Wait()
	if err != nil {
		summary.Cancelled = true
		idx.RunCancelled(opts.Session, gen)
		emit(opts.Progress, Event{Status: StatusDone, Err: err})
		return summary, err
	}
	idx.RunFinished(opts.Session, gen)
	emit(opts.Progress, Event{Status: StatusDone})
	trace.Pointf(opts.Tracer, trace.LevelPhase, "run",
		"drained %d records: %d inserted, %d filtered, %d malformed",
		summary.Records, summary.Inserted, summary.Filtered, summary.Malformed)
	return summary, nil
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}

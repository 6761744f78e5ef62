package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/toricodesthings/sds-risk-service/internal/sds"
	"golang.org/x/sync/errgroup"
)

// Parser is satisfied by *sds.Parser.
type Parser interface {
	Parse(ctx context.Context, doc sds.RawDocument) (sds.Result, error)
}

// Loader reads one input into a RawDocument.
type Loader func(path string) (sds.RawDocument, error)

type Config struct {
	Workers int           // <= 0 means runtime.NumCPU()
	Timeout time.Duration // per document; 0 disables
}

// Outcome is the result for one input. Exactly one of Result and Err is
// meaningful.
type Outcome struct {
	Path    string
	Result  sds.Result
	Err     error
	Elapsed time.Duration
}

// Pool parses many documents with bounded parallelism. A failing document
// never stops the others.
type Pool struct {
	parser  Parser
	load    Loader
	workers int
	timeout time.Duration
	logger  *slog.Logger
}

func New(parser Parser, load Loader, cfg Config, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		parser:  parser,
		load:    load,
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Run returns one Outcome per path, in input order.
func (p *Pool) Run(ctx context.Context, paths []string) []Outcome {
	out := make([]Outcome, len(paths))

	workers := p.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			out[i] = p.one(ctx, path)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pool) one(ctx context.Context, path string) (res Outcome) {
	start := time.Now()
	res.Path = path
	defer func() { res.Elapsed = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	doc, err := p.load(path)
	if err != nil {
		res.Err = err
		p.logger.Warn("document rejected", "path", path, "error", err)
		return res
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res.Result, res.Err = p.parser.Parse(ctx, doc)
	if res.Err != nil {
		p.logger.Error("document failed", "path", path, "error", res.Err)
	}
	return res
}

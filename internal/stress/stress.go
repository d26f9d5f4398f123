// Package stress drives a single cell from many goroutines at once and
// checks that no reader ever sees a torn value.
package stress

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/systmms/securecell/pkg/cell"
)

var (
	// ErrTornValue means a snapshot failed its checksum.
	ErrTornValue = errors.New("torn value observed")
	// ErrInconsistent means the final state broke the snapshot/lock relation
	// or held a value no writer produced.
	ErrInconsistent = errors.New("inconsistent final state")
)

// seedWriter marks the value the cell starts with.
const seedWriter = -1

// Sample is the value under test. Sum covers every other field, so a
// snapshot mixing two writes fails Valid.
type Sample struct {
	Writer  int       `yaml:"writer"`
	Seq     uint64    `yaml:"seq"`
	Payload [4]uint64 `yaml:"payload"`
	Sum     uint64    `yaml:"sum"`
}

// NewSample returns the seq'th sample of a writer.
func NewSample(writer int, seq uint64) Sample {
	s := Sample{Writer: writer, Seq: seq}
	base := uint64(writer+2)*0x9e3779b97f4a7c15 ^ seq
	for i := range s.Payload {
		base = base*6364136223846793005 + 1442695040888963407
		s.Payload[i] = base
	}
	s.Sum = s.checksum()
	return s
}

func (s Sample) checksum() uint64 {
	sum := uint64(s.Writer+2)*31 ^ s.Seq
	for _, p := range s.Payload {
		sum = sum*1099511628211 ^ p
	}
	return sum
}

// Valid reports whether the checksum matches.
func (s Sample) Valid() bool {
	return s.Sum == s.checksum()
}

// Config controls one run. The run ends when Duration elapses or, if
// Iterations is set, after that many operations per goroutine, whichever
// comes first.
type Config struct {
	Writers    int
	Togglers   int
	Readers    int
	Duration   time.Duration
	Iterations int
	Policy     cell.Policy
}

// Validate checks that the run can make progress
func (c Config) Validate() error {
	if c.Writers < 1 {
		return fmt.Errorf("stress: need at least one writer, got %d", c.Writers)
	}
	if c.Togglers < 0 || c.Readers < 0 {
		return fmt.Errorf("stress: negative goroutine count")
	}
	if c.Duration <= 0 && c.Iterations <= 0 {
		return fmt.Errorf("stress: set a duration or an iteration count")
	}
	return nil
}

// Report summarises a run.
type Report struct {
	Policy        cell.Policy
	Identity      cell.Identity
	Allocations   uint64
	Rejected      uint64
	Locks         uint64
	Unlocks       uint64
	SealErrors    uint64
	Snapshots     uint64
	NullSnapshots uint64
	Torn          uint64
	FinalLocked   bool
	FinalValue    *Sample
	Elapsed       time.Duration
}

type counters struct {
	allocations   atomic.Uint64
	rejected      atomic.Uint64
	locks         atomic.Uint64
	unlocks       atomic.Uint64
	sealErrors    atomic.Uint64
	snapshots     atomic.Uint64
	nullSnapshots atomic.Uint64
	torn          atomic.Uint64
}

// Run executes the workload against a fresh Cell[Sample]. The cell is
// created with cfg.Policy and a YAML codec; opts are applied afterwards and
// may add a logger or observer. The cell is reset before Run returns.
func Run(ctx context.Context, cfg Config, opts ...cell.Option) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	cellOpts := append([]cell.Option{
		cell.WithPolicy(cfg.Policy),
		cell.WithCodec[Sample](cell.YAMLCodec[Sample]{}),
	}, opts...)
	c := cell.FromValue(NewSample(seedWriter, 0), cellOpts...)
	defer c.Reset()

	runCtx := ctx
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	var (
		n       counters
		lastSeq = make([]atomic.Uint64, cfg.Writers)
	)
	more := func(ctx context.Context, i int) bool {
		return ctx.Err() == nil && (cfg.Iterations <= 0 || i < cfg.Iterations)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(runCtx)

	for w := 0; w < cfg.Writers; w++ {
		g.Go(func() error {
			for i := 0; more(gctx, i); i++ {
				seq := uint64(i + 1)
				err := c.Allocate(NewSample(w, seq))
				switch {
				case err == nil:
					lastSeq[w].Store(seq)
					n.allocations.Add(1)
				case errors.Is(err, cell.ErrLocked):
					n.rejected.Add(1)
				default:
					return fmt.Errorf("writer %d: %w", w, err)
				}
			}
			return nil
		})
	}

	for t := 0; t < cfg.Togglers; t++ {
		g.Go(func() error {
			for i := 0; more(gctx, i); i++ {
				if err := c.Lock(); err != nil {
					if !errors.Is(err, cell.ErrSeal) {
						return fmt.Errorf("toggler %d: lock: %w", t, err)
					}
					n.sealErrors.Add(1)
				}
				n.locks.Add(1)
				if err := c.Unlock(); err != nil {
					return fmt.Errorf("toggler %d: unlock: %w", t, err)
				}
				n.unlocks.Add(1)
			}
			return nil
		})
	}

	for r := 0; r < cfg.Readers; r++ {
		g.Go(func() error {
			for i := 0; more(gctx, i); i++ {
				n.snapshots.Add(1)
				snap := c.Snapshot()
				if snap.Null {
					n.nullSnapshots.Add(1)
					continue
				}
				if !snap.Value.Valid() {
					n.torn.Add(1)
					return fmt.Errorf("reader %d: %w (writer=%d seq=%d)", r, ErrTornValue, snap.Value.Writer, snap.Value.Seq)
				}
			}
			return nil
		})
	}

	err := g.Wait()

	report := Report{
		Policy:        c.Policy(),
		Identity:      c.Identity(),
		Allocations:   n.allocations.Load(),
		Rejected:      n.rejected.Load(),
		Locks:         n.locks.Load(),
		Unlocks:       n.unlocks.Load(),
		SealErrors:    n.sealErrors.Load(),
		Snapshots:     n.snapshots.Load(),
		NullSnapshots: n.nullSnapshots.Load(),
		Torn:          n.torn.Load(),
		Elapsed:       time.Since(start),
	}
	if err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	report.FinalLocked = c.IsLocked()
	snap := c.Snapshot()
	if snap.Null != report.FinalLocked {
		return report, fmt.Errorf("%w: null=%t locked=%t", ErrInconsistent, snap.Null, report.FinalLocked)
	}
	if !snap.Null {
		v := snap.Value
		report.FinalValue = &v
		if err := checkWritten(v, lastSeq, report.Allocations); err != nil {
			return report, err
		}
	}
	return report, nil
}

// checkWritten verifies v is a value some writer stored.
func checkWritten(v Sample, lastSeq []atomic.Uint64, allocations uint64) error {
	if !v.Valid() {
		return fmt.Errorf("final snapshot: %w", ErrTornValue)
	}
	if v.Writer == seedWriter {
		if allocations != 0 {
			return fmt.Errorf("%w: seed value survived %d allocations", ErrInconsistent, allocations)
		}
		return nil
	}
	if v.Writer < 0 || v.Writer >= len(lastSeq) || v.Seq == 0 || v.Seq > lastSeq[v.Writer].Load() {
		return fmt.Errorf("%w: writer=%d seq=%d was never stored", ErrInconsistent, v.Writer, v.Seq)
	}
	return nil
}

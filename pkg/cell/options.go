package cell

// Logger receives diagnostic messages from cells. Values are never passed
// to it, only identities and policy names. Calls happen after the cell's
// guard has been released. *logging.Logger satisfies it.
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

// Op names a cell operation reported to an Observer.
type Op string

const (
	OpAllocate Op = "allocate"
	OpLock     Op = "lock"
	OpUnlock   Op = "unlock"
	OpReset    Op = "reset"
)

// Observer is notified of cell lifecycle events. Calls happen after the
// cell's guard has been released.
type Observer interface {
	CellCreated(policy Policy)
	CellTransition(policy Policy, op Op, err error)
	CellDestroyed(policy Policy)
}

// Option configures a cell at construction.
type Option func(*settings)

type settings struct {
	policy   Policy
	codec    any
	clone    any
	wipe     any
	logger   Logger
	observer Observer
}

// WithPolicy selects how the value is stored while the cell is locked.
func WithPolicy(p Policy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithCodec installs the codec used by PolicySealed. A codec for a
// different type than the cell's is ignored.
func WithCodec[T any](c Codec[T]) Option {
	return func(s *settings) {
		s.codec = c
	}
}

// WithClone installs the function used to copy values into and out of the
// cell. The default is a plain assignment.
func WithClone[T any](fn func(T) T) Option {
	return func(s *settings) {
		s.clone = fn
	}
}

// WithWipe installs the function used to scrub a slot before it is
// released. The default overwrites the slot with the zero value. A wipe
// that scrubs shared backing storage must be paired with a deep WithClone.
func WithWipe[T any](fn func(*T)) Option {
	return func(s *settings) {
		s.wipe = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithObserver sets the lifecycle observer, typically *metrics.CellMetrics.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observer = o
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

type nopObserver struct{}

func (nopObserver) CellCreated(Policy) {}
func (nopObserver) CellTransition(Policy, Op, error) {}
func (nopObserver) CellDestroyed(Policy) {}

package transfer

// Logger receives the engine's per-object and per-phase log lines
type Logger interface {
	Info(msg string, keyvals ...any)
	Error(msg string, err error, keyvals ...any)
}

// Progress ticks once per processed entry of a phase
type Progress interface {
	Add(n int) error
	Finish() error
}

// ProgressFunc starts a progress indicator for one phase
type ProgressFunc func(description string) Progress

type nopLogger struct{}

func (nopLogger) Info(string, ...any)         {}
func (nopLogger) Error(string, error, ...any) {}

type nopProgress struct{}

func (nopProgress) Add(int) error { return nil }
func (nopProgress) Finish() error { return nil }

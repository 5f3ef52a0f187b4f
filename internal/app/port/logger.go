package port

// Logger defines the leveled, key-value logging interface used across the
// application. Pipeline services emit their trace events through it, which
// lets tests substitute a recording implementation and assert on events
// instead of matching log lines.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

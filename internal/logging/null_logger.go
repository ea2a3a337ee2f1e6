package logging

// NullLogger discards everything.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...any) {}
func (l *NullLogger) Info(format string, args ...any)    {}
func (l *NullLogger) Success(format string, args ...any) {}
func (l *NullLogger) Warn(format string, args ...any)    {}
func (l *NullLogger) Error(format string, args ...any)   {}

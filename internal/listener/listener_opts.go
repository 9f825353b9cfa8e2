package listener

import "time"

type WsListenerOpt func(*WsListener)

// WithBuildVersion sets the server build timestamp used for the client
// version check.
func WithBuildVersion(v int64) WsListenerOpt {
	return func(l *WsListener) {
		l.buildVersion = v
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) WsListenerOpt {
	return func(l *WsListener) {
		l.now = now
	}
}

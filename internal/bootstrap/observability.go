package bootstrap

import "log"

// Observer receives progress output from phases and poll loops.
type Observer interface {
	Printf(format string, v ...any)
}

// ConsoleObserver logs through the standard library logger, which prefixes
// every line with a timestamp. Fatal diagnostics therefore arrive
// timestamped without further ceremony.
type ConsoleObserver struct{}

// NewConsoleObserver creates a console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

// Printf implements Observer.
func (o *ConsoleObserver) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

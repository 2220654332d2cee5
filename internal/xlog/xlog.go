// Package xlog is a thin wrapper over the standard library's log package
// that tags every line with a component name, the same ad hoc
// "WARN: ..."-style log.Printf calls the rest of this codebase's lineage
// uses, just centralized so every component's lines are attributable.
package xlog

import "log"

// Logger prefixes every line it writes with its component name.
type Logger struct {
	component string
}

// New returns a Logger tagging its output with component.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Printf(format string, args ...any) {
	log.Printf("component=%s "+format, append([]any{l.component}, args...)...)
}

func (l *Logger) Println(args ...any) {
	log.Println(append([]any{"component=" + l.component}, args...)...)
}

// Package logservice defines the structured logging surface used by every
// naming-server and storage-server component.
package logservice

import "time"

const (
	DebugLevel = "DEBUG"
	InfoLevel  = "INFO"
	WarnLevel  = "WARN"
	ErrorLevel = "ERROR"
)

var levelValue = map[string]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// LevelValue returns the ordinal rank of a level name, for filtering.
// Unknown level names rank as DebugLevel (the least restrictive).
func LevelValue(level string) int {
	if v, ok := levelValue[level]; ok {
		return v
	}
	return levelValue[DebugLevel]
}

// LogEvent is one structured log record.
type LogEvent struct {
	Timestamp time.Time
	NodeID    string
	Message   string
	Metadata  map[string]any
}

// LogService is the logging surface every component logs through instead
// of the stdlib log package directly.
type LogService interface {
	Debug(event LogEvent)
	Info(event LogEvent)
	Warn(event LogEvent)
	Error(event LogEvent)
}

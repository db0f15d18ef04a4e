// Package localdisc implements logservice.LogService against a per-node
// log file on the local filesystem.
package localdisc

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/arjunmenon/meridian/internal/logservice"
)

// LogService writes log events to <logDir>/<nodeID>.log, one line per
// event, filtered by a minimum level.
type LogService struct {
	nodeID   string
	mu       sync.Mutex
	logger   *log.Logger
	minLevel int
}

// New creates a LogService rooted at logDir, tagging every event with
// nodeID. minLevel defaults to DebugLevel (no filtering) when omitted.
func New(logDir, nodeID string, minLevel ...string) (*LogService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("logservice: create log dir: %w", err)
	}

	filePath := filepath.Join(logDir, fmt.Sprintf("%s.log", nodeID))
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("logservice: open log file: %w", err)
	}

	ls := &LogService{
		nodeID:   nodeID,
		logger:   log.New(file, "", 0),
		minLevel: logservice.LevelValue(logservice.DebugLevel),
	}
	if len(minLevel) > 0 && minLevel[0] != "" {
		ls.minLevel = logservice.LevelValue(strings.ToUpper(strings.TrimSpace(minLevel[0])))
	}
	return ls, nil
}

func (ls *LogService) shouldLog(level string) bool {
	return logservice.LevelValue(level) >= ls.minLevel
}

func formatLog(level, nodeID string, event logservice.LogEvent) string {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var meta strings.Builder
	for k, v := range event.Metadata {
		fmt.Fprintf(&meta, "%s=%v ", k, v)
	}

	return fmt.Sprintf("%s [%s] %s: %s %s\n", ts.Format(time.RFC3339), nodeID, level, event.Message, meta.String())
}

func (ls *LogService) log(level string, event logservice.LogEvent) {
	if !ls.shouldLog(level) {
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	event.NodeID = ls.nodeID
	ls.logger.Print(formatLog(level, ls.nodeID, event))
}

func (ls *LogService) Debug(event logservice.LogEvent) { ls.log(logservice.DebugLevel, event) }
func (ls *LogService) Info(event logservice.LogEvent)  { ls.log(logservice.InfoLevel, event) }
func (ls *LogService) Warn(event logservice.LogEvent)  { ls.log(logservice.WarnLevel, event) }
func (ls *LogService) Error(event logservice.LogEvent) { ls.log(logservice.ErrorLevel, event) }

var _ logservice.LogService = (*LogService)(nil)

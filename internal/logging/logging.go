// Package logging constructs the loggers used by the node and its
// subsystems. All components log through logrus with a compact
// single-line formatter so that multi-node test output stays readable.
package logging

import (
	"bytes"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// New creates a logger at the given level, tagged with the application
// name (typically "node-1".."node-3" or "standalone").
//
// Levels are whatever logrus accepts: trace, debug, info, warn/warning,
// error, fatal, panic. An unknown level is an error rather than a
// silent default so that a typo in LOG_LEVEL is caught at startup.
func New(level, appName string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unsupported log level %q", level)
	}
	logger := log.New()
	logger.SetLevel(lvl)
	logger.SetFormatter(&LineFormatter{AppName: appName})
	return logger, nil
}

// levelTags maps logrus levels onto short fixed-width tags so columns
// line up when three nodes interleave on one terminal.
var levelTags = map[log.Level]string{
	log.TraceLevel: "TRC",
	log.DebugLevel: "DBG",
	log.InfoLevel:  "INF",
	log.WarnLevel:  "WRN",
	log.ErrorLevel: "ERR",
	log.FatalLevel: "FTL",
	log.PanicLevel: "PNC",
}

// LineFormatter renders one entry per line, structured fields appended
// as sorted key=value pairs:
//
//	2026-08-06 14:03:21.504 INF [node-1] listening on :5001
//	2026-08-06 14:03:22.017 WRN [node-1] replication failed peer=3 shard=0
type LineFormatter struct {
	AppName string
}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05.000"))
	b.WriteByte(' ')
	tag, ok := levelTags[entry.Level]
	if !ok {
		tag = "???"
	}
	b.WriteString(tag)
	fmt.Fprintf(&b, " [%s] %s", f.AppName, entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

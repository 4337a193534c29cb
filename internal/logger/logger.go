// Package logger configures the process logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It writes warnings and above to stderr until Init is called.
var Log = newLogger(os.Stderr, logrus.WarnLevel)

// Formatter renders "[time] [LEVL] message key=value".
type Formatter struct{}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", entry.Time.Format("2006-01-02 15:04:05"), level, entry.Message)
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// Init replaces Log with a logger at the given level writing to w.
func Init(levelStr string, w io.Writer) error {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	if w == nil {
		w = os.Stderr
	}
	Log = newLogger(w, level)
	return nil
}

func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&Formatter{})
	l.SetLevel(level)
	return l
}

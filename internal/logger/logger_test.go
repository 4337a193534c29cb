package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitAndFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init("debug", &buf); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		Log = newLogger(&bytes.Buffer{}, logrus.WarnLevel)
	})
	Log.WithFields(logrus.Fields{"rows": 3, "path": "a.csv"}).Debug("loaded dataset")
	out := buf.String()
	if !strings.Contains(out, "[DEBU] loaded dataset path=a.csv rows=3") {
		t.Fatalf("unexpected log line: %q", out)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	if err := Init("loud", nil); err == nil {
		t.Fatalf("expected error for bad level")
	}
}

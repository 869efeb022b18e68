package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerOutputCapture(t *testing.T) {
	var buf bytes.Buffer
	InitLogger(false)
	SetLogOutput(&buf)

	log := GetLogger("fetch")
	log.Info().Str("mirror", "example.com").Msg("Attempting fetch")
	out := buf.String()
	if !strings.Contains(out, "Attempting fetch") {
		t.Errorf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "fetch") || !strings.Contains(out, "example.com") {
		t.Errorf("log output missing fields: %q", out)
	}
}

func TestLoggerDebugGating(t *testing.T) {
	var buf bytes.Buffer
	InitLogger(false)
	SetLogOutput(&buf)
	infoLogger := GetLogger("install")
	infoLogger.Debug().Msg("staging details")
	if buf.Len() != 0 {
		t.Errorf("debug message emitted at info level: %q", buf.String())
	}

	InitLogger(true)
	SetLogOutput(&buf)
	debugLogger := GetLogger("install")
	debugLogger.Debug().Msg("staging details")
	if !strings.Contains(buf.String(), "staging details") {
		t.Errorf("debug message missing at debug level: %q", buf.String())
	}
}

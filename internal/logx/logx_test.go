package logx_test

import (
	"bytes"
	"testing"

	"github.com/nalgeon/be"

	"pyrite/internal/logx"
)

func TestDebugfPrefixesEveryLine(t *testing.T) {
	var buf bytes.Buffer
	l := logx.New(&buf, true)
	l.Debugf("first\nsecond %d\n", 2)
	be.Equal(t, buf.String(), "[DEBUG] first\n[DEBUG] second 2\n")
}

func TestDebugfDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := logx.New(&buf, false)
	l.Debugf("hidden")
	be.Equal(t, buf.Len(), 0)

	l.SetDebug(true)
	l.Debugf("shown")
	be.Equal(t, buf.String(), "[DEBUG] shown\n")
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *logx.Logger
	be.True(t, !l.Enabled())
	l.Debugf("nothing")
	l.SetDebug(true)
}

package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestStandardLoggerPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := NewStandardLogger(log.New(&buf, "", 0))

	l.Info("hello %s", "world")
	l.Warning("watch out")
	l.Error("boom: %d", 42)

	out := buf.String()
	for _, want := range []string{
		"[INFO] hello world",
		"[WARNING] watch out",
		"[ERROR] boom: 42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored")
	l.Warning("ignored")
	l.Error("ignored")
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestMockLoggerRecords(t *testing.T) {
	m := NewMockLogger()
	m.Info("a %d", 1)
	m.Warning("b")
	m.Error("c")
	m.Close()

	if got := m.InfoCalls(); len(got) != 1 || got[0] != "a 1" {
		t.Errorf("InfoCalls = %v", got)
	}
	if got := m.WarningCalls(); len(got) != 1 || got[0] != "b" {
		t.Errorf("WarningCalls = %v", got)
	}
	if got := m.ErrorCalls(); len(got) != 1 || got[0] != "c" {
		t.Errorf("ErrorCalls = %v", got)
	}
	if !m.CloseCalled() {
		t.Error("Close not recorded")
	}
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := NewMockLogger()
	b := NewMockLogger()
	ml := NewMultiLogger(a, b)

	ml.Info("x")
	ml.Error("y")

	for _, m := range []*MockLogger{a, b} {
		if len(m.InfoCalls()) != 1 || len(m.ErrorCalls()) != 1 {
			t.Errorf("backend missed messages: info=%v error=%v", m.InfoCalls(), m.ErrorCalls())
		}
	}
	if err := ml.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !a.CloseCalled() || !b.CloseCalled() {
		t.Error("Close not propagated to all backends")
	}
}

package klog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLogger struct {
	calls []call
	level Level
}

type call struct {
	level     Level
	component string
	message   string
	fields    Fields
}

func (f *fakeLogger) Log(level Level, component, message string, fields Fields) {
	f.calls = append(f.calls, call{level, component, message, fields})
}

func (f *fakeLogger) IsEnabled(level Level) bool { return level >= f.level }

func withLogger(t *testing.T, l Logger) {
	t.Helper()
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
}

func TestDefaultLoggerIsNoop(t *testing.T) {
	SetLogger(nil)
	// Must not panic with no logger installed.
	Info("test", "hello", Fields{"a": 1})
}

func TestSetLoggerRoutesCallsThrough(t *testing.T) {
	f := &fakeLogger{}
	withLogger(t, f)

	Info("kthread", "thread allocated", Fields{"tid": uint64(100)})

	requireCallCount(t, f.calls, 1)
	assert.Equal(t, LevelInfo, f.calls[0].level)
	assert.Equal(t, "kthread", f.calls[0].component)
	assert.Equal(t, "thread allocated", f.calls[0].message)
	assert.Equal(t, uint64(100), f.calls[0].fields["tid"])
}

func TestEachLevelHelperUsesItsOwnLevel(t *testing.T) {
	f := &fakeLogger{}
	withLogger(t, f)

	Debug("c", "d", nil)
	Info("c", "i", nil)
	Warn("c", "w", nil)
	Error("c", "e", nil)

	requireCallCount(t, f.calls, 4)
	assert.Equal(t, LevelDebug, f.calls[0].level)
	assert.Equal(t, LevelInfo, f.calls[1].level)
	assert.Equal(t, LevelWarn, f.calls[2].level)
	assert.Equal(t, LevelError, f.calls[3].level)
}

func TestZerologLoggerIsEnabledRespectsMinimumLevel(t *testing.T) {
	l := NewZerologLogger(LevelWarn)
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelInfo))
	assert.True(t, l.IsEnabled(LevelWarn))
	assert.True(t, l.IsEnabled(LevelError))
}

func TestZerologLoggerLogSkipsBelowMinimumLevel(t *testing.T) {
	l := NewZerologLogger(LevelError)
	// Below-threshold levels must be silently dropped, not panic, even
	// with nil fields.
	l.Log(LevelDebug, "c", "should be skipped", nil)
	l.Log(LevelInfo, "c", "should be skipped", nil)
}

func requireCallCount(t *testing.T, calls []call, n int) {
	t.Helper()
	if len(calls) != n {
		t.Fatalf("expected %d calls, got %d: %+v", n, len(calls), calls)
	}
}

package shell

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kernel"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	k, err := kernel.Boot(kconfig.WithCores(1), kconfig.WithTickPeriod(time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(k.Shutdown)
	go k.RunCore(0)

	var buf bytes.Buffer
	return New(k, &buf), &buf
}

func TestHelpListsCommands(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("help")
	assert.Contains(t, out.String(), "commands:")
}

func TestUnknownCommandReportsItself(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("frobnicate")
	assert.Contains(t, out.String(), "unknown command: frobnicate")
}

func TestMkdirThenLsShowsEntry(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("mkdir docs")
	out.Reset()

	sh.Execute("ls")
	assert.Contains(t, out.String(), "docs")
}

func TestMkdirDuplicateReportsExists(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("mkdir docs")
	out.Reset()

	sh.Execute("mkdir docs")
	assert.Contains(t, out.String(), "already exists")
}

func TestCatMissingFileReportsError(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("cat nope.txt")
	assert.Contains(t, out.String(), "no such file")
}

func TestRunSpawnsAndPsShowsThread(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("run worker")
	line := out.String()
	assert.True(t, strings.HasPrefix(line, "spawned "))
	tid := strings.TrimSpace(strings.TrimPrefix(line, "spawned "))

	out.Reset()
	sh.Execute("ps")
	assert.Contains(t, out.String(), "TID\tSTATUS")
	assert.Contains(t, out.String(), tid+"\t")
}

func TestKillUnknownTidStillReportsDestroyed(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("kill 999999")
	assert.Contains(t, out.String(), "destroyed 999999")
}

func TestKillInvalidTidReportsError(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("kill not-a-number")
	assert.Contains(t, out.String(), "invalid tid")
}

func TestFreeReportsStackCounters(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Execute("run worker")
	out.Reset()

	sh.Execute("free")
	assert.Contains(t, out.String(), "stacks allocated=")
}

func TestRunMultipleLinesThroughReader(t *testing.T) {
	sh, out := newTestShell(t)
	sh.Run(strings.NewReader("mkdir a\nls\n"))
	assert.Contains(t, out.String(), "a")
}

package ktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := BootTimeUs()
	Init()
	second := BootTimeUs()
	assert.Equal(t, first, second, "a second Init must not move the boot time")
}

func TestCurrentValuesAreMonotonicNonDecreasing(t *testing.T) {
	Init()
	msBefore := CurrentMs()
	usBefore := CurrentUs()
	nsBefore := CurrentNs()

	time.Sleep(2 * time.Millisecond)

	assert.GreaterOrEqual(t, CurrentMs(), msBefore)
	assert.GreaterOrEqual(t, CurrentUs(), usBefore)
	assert.GreaterOrEqual(t, CurrentNs(), nsBefore)
}

func TestCurrentCycleTracksCurrentNs(t *testing.T) {
	Init()
	assert.InDelta(t, float64(CurrentNs()), float64(CurrentCycle()), float64(time.Millisecond))
}

func TestBootTimeUsIsPlausibleUnixMicros(t *testing.T) {
	Init()
	// Sanity bound: any time after 2020-01-01 in unix micros.
	const y2020Micros = 1577836800 * 1_000_000
	assert.Greater(t, BootTimeUs(), uint64(y2020Micros))
}

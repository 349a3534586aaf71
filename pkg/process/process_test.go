package process

import (
	"testing"
	"time"

	"github.com/marmos91/dittows/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTable() (*Table, *clock.FakeClock) {
	clk := clock.Fake(epoch)
	return NewTable(clk, nil), clk
}

func TestStart(t *testing.T) {
	tbl, clk := newTable()

	p, err := tbl.Start("main.py", "python3 main.py", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusStarting, p.Status)
	assert.Equal(t, "0s", p.Uptime)
	assert.Equal(t, "python3 main.py", p.Command)
	assert.NotEmpty(t, p.ID)

	clk.Advance(1999 * time.Millisecond)
	got, err := tbl.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStarting, got.Status)

	clk.Advance(time.Millisecond)
	got, err = tbl.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, Process{
		ID:      p.ID,
		Name:    "main.py",
		Status:  StatusRunning,
		CPU:     RunningCPU,
		Memory:  RunningMemory,
		Uptime:  "1s",
		Command: "python3 main.py",
	}, got)
	assert.Zero(t, tbl.Pending())
}

func TestStart_NewestFirst(t *testing.T) {
	tbl, _ := newTable()
	a, _ := tbl.Start("a.py", "python3 a.py", time.Second)
	b, _ := tbl.Start("b.py", "python3 b.py", time.Second)

	list := tbl.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestStart_ZeroDelayIsImmediate(t *testing.T) {
	tbl, _ := newTable()
	p, err := tbl.Start("a.py", "python3 a.py", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, p.Status)
}

func TestRestart(t *testing.T) {
	tbl, clk := newTable()
	p, _ := tbl.Start("main.py", "python3 main.py", 2*time.Second)
	clk.Advance(2 * time.Second)

	r, err := tbl.Restart(p.ID, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusStarting, r.Status)
	assert.Equal(t, "0s", r.Uptime)

	clk.Advance(time.Second)
	got, _ := tbl.Get(p.ID)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, "0s", got.Uptime, "restart only flips status")
}

func TestRestart_CancelsPendingStart(t *testing.T) {
	tbl, clk := newTable()
	p, _ := tbl.Start("main.py", "python3 main.py", 2*time.Second)

	clk.Advance(1500 * time.Millisecond)
	_, err := tbl.Restart(p.ID, time.Second)
	require.NoError(t, err)

	// The first 2s deadline passes; the start transition must not fire.
	clk.Advance(600 * time.Millisecond)
	got, _ := tbl.Get(p.ID)
	assert.Equal(t, StatusStarting, got.Status)
	assert.Zero(t, got.CPU)

	clk.Advance(400 * time.Millisecond)
	got, _ = tbl.Get(p.ID)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Zero(t, clk.Pending(), "no timers left behind")
}

func TestStop(t *testing.T) {
	tbl, clk := newTable()
	p, _ := tbl.Start("main.py", "python3 main.py", 2*time.Second)

	s, err := tbl.Stop(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, s.Status)

	clk.Advance(time.Minute)
	got, _ := tbl.Get(p.ID)
	assert.Equal(t, StatusStopped, got.Status, "cancelled transition never fires")
	assert.Zero(t, clk.Pending())
}

func TestShutdown(t *testing.T) {
	tbl, clk := newTable()
	a, _ := tbl.Start("a.py", "python3 a.py", time.Second)
	b, _ := tbl.Start("b.py", "python3 b.py", 3*time.Second)
	clk.Advance(time.Second)

	tbl.Shutdown()
	clk.Advance(time.Minute)

	got, _ := tbl.Get(a.ID)
	assert.Equal(t, StatusRunning, got.Status)
	got, _ = tbl.Get(b.ID)
	assert.Equal(t, StatusStarting, got.Status)
	assert.Zero(t, tbl.Pending())

	_, err := tbl.Start("c.py", "python3 c.py", time.Second)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestUnknownID(t *testing.T) {
	tbl, _ := newTable()

	_, err := tbl.Restart("nope", time.Second)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tbl.Stop("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tbl.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRealClock(t *testing.T) {
	tbl := NewTable(clock.Real(), nil)
	p, err := tbl.Start("a.py", "python3 a.py", 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, _ := tbl.Get(p.ID)
		return got.Status == StatusRunning
	}, time.Second, 5*time.Millisecond)
}

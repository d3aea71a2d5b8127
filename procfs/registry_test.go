package procfs

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellPIDExemptFromKillAndReap(t *testing.T) {
	r := NewRegistry(nil)
	assert.Error(t, r.Kill(ShellPID, SIGTERM))
	r.Reap(ShellPID) // no-op, must not panic or remove
	_, ok := r.Lookup(ShellPID)
	assert.True(t, ok)
}

func TestPIDsStrictlyIncreasing(t *testing.T) {
	r := NewRegistry(nil)
	var last int
	for i := 0; i < 5; i++ {
		p := r.Register(RegisterOptions{Command: "cmd"})
		assert.Greater(t, p.PID, last)
		last = p.PID
	}
}

func TestStatusLifecycle(t *testing.T) {
	r := NewRegistry(nil)
	p := r.Register(RegisterOptions{Command: "sleep"})

	require.NoError(t, r.UpdateStatus(p.PID, Sleeping, nil))
	require.NoError(t, r.UpdateStatus(p.PID, Running, nil))
	require.NoError(t, r.UpdateStatus(p.PID, Stopped, nil))
	require.NoError(t, r.UpdateStatus(p.PID, Running, nil))

	code := 0
	require.NoError(t, r.UpdateStatus(p.PID, Zombie, &code))
	assert.Error(t, r.UpdateStatus(p.PID, Running, nil))
}

func TestReapRemovesOnlyZombies(t *testing.T) {
	r := NewRegistry(nil)
	p := r.Register(RegisterOptions{Command: "cmd"})
	r.Reap(p.PID) // not a zombie yet: no-op
	_, ok := r.Lookup(p.PID)
	assert.True(t, ok)

	code := 0
	require.NoError(t, r.UpdateStatus(p.PID, Zombie, &code))
	r.Reap(p.PID)
	_, ok = r.Lookup(p.PID)
	assert.False(t, ok)
}

func TestKillFiresCancelToken(t *testing.T) {
	r := NewRegistry(nil)
	var cancelled bool
	p := r.Register(RegisterOptions{Command: "cmd", Cancel: func() { cancelled = true }})
	require.NoError(t, r.Kill(p.PID, SIGKILL))
	assert.True(t, cancelled)
}

func TestJobTableResolvesSpecs(t *testing.T) {
	r := NewRegistry(nil)
	jt := NewJobTable(r)
	p1 := r.Register(RegisterOptions{Command: "sleep 10"})
	id := jt.Add("sleep 10", []int{p1.PID})

	pid, err := jt.ResolveSpec("%" + strconv.Itoa(id))
	require.NoError(t, err)
	assert.Equal(t, p1.PID, pid)

	pid, err = jt.ResolveSpec("%%")
	require.NoError(t, err)
	assert.Equal(t, p1.PID, pid)
}

func TestJobTableListsOnlyLiveJobs(t *testing.T) {
	r := NewRegistry(nil)
	jt := NewJobTable(r)
	p1 := r.Register(RegisterOptions{Command: "sleep 10"})
	jt.Add("sleep 10", []int{p1.PID})

	jobs := jt.GetBackgroundJobs()
	require.Len(t, jobs, 1)

	code := 0
	require.NoError(t, r.UpdateStatus(p1.PID, Zombie, &code))
	r.Reap(p1.PID)
	assert.Empty(t, jt.GetBackgroundJobs())
}

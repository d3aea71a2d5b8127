package vprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcProviderReaddirRoot(t *testing.T) {
	p := NewProcProvider("lifo", nil)
	names, err := p.Readdir("/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cpuinfo", "meminfo", "uptime", "version", "net"}, names)
}

func TestProcProviderReaddirNet(t *testing.T) {
	p := NewProcProvider("lifo", nil)
	names, err := p.Readdir("/net")
	require.NoError(t, err)
	assert.Equal(t, []string{"info"}, names)
}

func TestProcProviderStatLeafIsFileMode0444(t *testing.T) {
	p := NewProcProvider("lifo", nil)
	st, err := p.Stat("/uptime")
	require.NoError(t, err)
	assert.False(t, st.IsDir)
	assert.EqualValues(t, 0o444, st.Mode)
}

func TestProcProviderWithPidEnrichment(t *testing.T) {
	lister := fakeLister{{PID: 2, PPID: 1, Status: "running", Command: "sleep 10"}}
	p := NewProcProvider("lifo", lister)

	names, err := p.Readdir("/")
	require.NoError(t, err)
	assert.Contains(t, names, "2")

	status, err := p.ReadFileString("/2/status")
	require.NoError(t, err)
	assert.Contains(t, status, "pid:\t2")
}

type fakeLister []ProcessSnapshot

func (f fakeLister) Snapshot() []ProcessSnapshot { return f }

func TestDevNullDiscardsWrites(t *testing.T) {
	d := NewDevProvider()
	require.NoError(t, d.WriteFile("/null", []byte("anything")))
	b, err := d.ReadFile("/null")
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestDevZeroAndRandomFixedSize(t *testing.T) {
	d := NewDevProvider()
	z, err := d.ReadFile("/zero")
	require.NoError(t, err)
	assert.Len(t, z, devBufSize)
	for _, b := range z {
		assert.EqualValues(t, 0, b)
	}

	r, err := d.ReadFile("/urandom")
	require.NoError(t, err)
	assert.Len(t, r, devBufSize)
}

func TestDevWriteToReadOnlyDeviceFails(t *testing.T) {
	d := NewDevProvider()
	err := d.WriteFile("/zero", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDevClipboardRoundTrip(t *testing.T) {
	d := NewDevProvider()
	require.NoError(t, d.WriteFile("/clipboard", []byte("copied text")))
	b, err := d.ReadFile("/clipboard")
	require.NoError(t, err)
	assert.Equal(t, "copied text", string(b))
}

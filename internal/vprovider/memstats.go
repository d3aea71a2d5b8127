package vprovider

import "runtime"

// runtimeMemStats wraps runtime.MemStats with just the fields meminfo
// wants, so proc.go doesn't need to depend on the exact MemStats shape
// inline.
type runtimeMemStats struct {
	sys  uint64
	idle uint64
}

func (m *runtimeMemStats) read() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.sys = ms.Sys
	m.idle = ms.HeapIdle
}

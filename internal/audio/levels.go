package audio

import (
	"encoding/binary"
	"sync"
)

// LevelMeter keeps the latest samples of the take in progress so the UI can
// draw a live waveform. One goroutine writes; any number may read.
type LevelMeter struct {
	mu   sync.RWMutex
	ring []int16
	next int  // slot the next sample goes into
	full bool // ring has wrapped at least once
}

// NewLevelMeter creates a meter holding up to size samples.
func NewLevelMeter(size int) *LevelMeter {
	return &LevelMeter{ring: make([]int16, max(size, 1))}
}

// WritePCM decodes S16LE audio into the meter. A trailing odd byte is
// ignored.
func (m *LevelMeter) WritePCM(pcm []byte) {
	n := len(pcm) / 2
	if n == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// only the newest len(ring) samples can survive
	skip := max(n-len(m.ring), 0)
	if skip > 0 {
		m.full = true
	}
	for i := skip; i < n; i++ {
		m.ring[m.next] = int16(binary.LittleEndian.Uint16(pcm[2*i:])) //nolint:gosec // two's complement reinterpretation
		m.next++
		if m.next == len(m.ring) {
			m.next = 0
			m.full = true
		}
	}
}

// Recent returns up to n of the newest samples, oldest first.
func (m *LevelMeter) Recent(n int) []int16 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n = min(n, m.lenLocked())
	if n <= 0 {
		return nil
	}

	out := make([]int16, 0, n)
	start := m.next - n
	if start < 0 {
		// the window straddles the end of the ring
		out = append(out, m.ring[len(m.ring)+start:]...)
		start = 0
	}

	return append(out, m.ring[start:m.next]...)
}

// Len reports how many samples are held.
func (m *LevelMeter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lenLocked()
}

// Reset forgets every sample, e.g. when a new take starts.
func (m *LevelMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next = 0
	m.full = false
}

func (m *LevelMeter) lenLocked() int {
	if m.full {
		return len(m.ring)
	}

	return m.next
}

package workflow

import "github.com/alkime/moodtales/internal/emotion"

// SetObservationsForTest replaces the batch held by the Generate step.
func SetObservationsForTest(m *Machine, observations []emotion.Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	step, ok := m.step.(GenerateStep)
	if !ok {
		panic("SetObservationsForTest: machine is not in Generate")
	}
	step.Observations = observations
	m.step = step
}

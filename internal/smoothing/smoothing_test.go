package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sua-org/vigil-sim/internal/core"
)

func testThresholds() map[core.EventType]float64 {
	return map[core.EventType]float64{
		core.EventViolence: 0.70,
		core.EventCrash:    0.30,
	}
}

func TestObserveSustainedHighSignal(t *testing.T) {
	e := NewEngine(5, testThresholds())

	var (
		incident bool
		avg      float64
	)
	for i := 0; i < 5; i++ {
		incident, avg = e.Observe("CAM-042", core.EventViolence, 0.9)
	}
	assert.True(t, incident)
	assert.Equal(t, 0.9, avg)
}

func TestObserveSingleSpikeIsAmortized(t *testing.T) {
	e := NewEngine(5, testThresholds())

	for i := 0; i < 4; i++ {
		e.Observe("CAM-042", core.EventViolence, 0.1)
	}
	incident, avg := e.Observe("CAM-042", core.EventViolence, 0.9)

	assert.False(t, incident)
	assert.Equal(t, 0.26, avg)
}

func TestWindowEvictsOldest(t *testing.T) {
	e := NewEngine(3, testThresholds())

	for i := 0; i < 3; i++ {
		e.Observe("CAM-042", core.EventViolence, 0.9)
	}
	// três observações baixas expulsam as altas por completo
	var avg float64
	for i := 0; i < 3; i++ {
		_, avg = e.Observe("CAM-042", core.EventViolence, 0.0)
	}
	assert.Equal(t, 0.0, avg)
}

func TestWindowsArePerCamera(t *testing.T) {
	e := NewEngine(5, testThresholds())

	for i := 0; i < 5; i++ {
		e.Observe("CAM-042", core.EventViolence, 0.95)
	}
	incident, avg := e.Observe("CAM-128", core.EventViolence, 0.1)

	assert.False(t, incident)
	assert.Equal(t, 0.1, avg)
}

func TestPartialWindowAveragesWhatExists(t *testing.T) {
	e := NewEngine(5, testThresholds())

	e.Observe("CAM-042", core.EventViolence, 0.8)
	incident, avg := e.Observe("CAM-042", core.EventViolence, 0.9)

	assert.True(t, incident)
	assert.Equal(t, 0.85, avg)
}

func TestResetDropsWindow(t *testing.T) {
	e := NewEngine(5, testThresholds())

	for i := 0; i < 5; i++ {
		e.Observe("CAM-042", core.EventViolence, 0.9)
	}
	e.Reset("CAM-042")

	incident, avg := e.Observe("CAM-042", core.EventViolence, 0.1)
	assert.False(t, incident)
	assert.Equal(t, 0.1, avg)
}

func TestThresholdFallsBackToViolence(t *testing.T) {
	e := NewEngine(5, testThresholds())
	assert.Equal(t, 0.30, e.ThresholdFor(core.EventCrash))
	assert.Equal(t, 0.70, e.ThresholdFor(core.EventType("unknown")))
}

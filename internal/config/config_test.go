package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/vigil-sim/internal/core"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, 5, cfg.SmoothingWindow)
	assert.Equal(t, 0.70, cfg.ViolenceThreshold)
	assert.Equal(t, 0.30, cfg.CrashThreshold)
	assert.Equal(t, 40*time.Second, cfg.Cooldown)
	assert.Equal(t, 40*time.Second, cfg.MergeWindow)
	assert.Equal(t, 200, cfg.MaxIncidents)
	assert.Equal(t, 120*time.Second, cfg.RotationDuration)
	assert.Equal(t, "vigil/sim", cfg.BaseTopic)

	// 4 câmeras por categoria na instalação padrão
	require.Len(t, cfg.Cameras, 12)
	byCat := map[core.CameraCategory]int{}
	for _, cam := range cfg.Cameras {
		byCat[cam.Category]++
	}
	assert.Equal(t, 4, byCat[core.CategoryViolence])
	assert.Equal(t, 4, byCat[core.CategoryCrash])
	assert.Equal(t, 4, byCat[core.CategoryGeneric])
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VIGIL_VIOLENCE_CAMERAS", "CAM-A, CAM-B")
	t.Setenv("VIGIL_CRASH_CAMERAS", "CAM-C")
	t.Setenv("VIGIL_GENERIC_CAMERAS", "CAM-D")
	t.Setenv("VIGIL_COOLDOWN_SECONDS", "15")
	t.Setenv("VIGIL_VIOLENCE_THRESHOLD", "0.85")
	t.Setenv("MQTT_BASE_TOPIC", "plant7/vigil/")

	cfg := FromEnv()
	assert.Equal(t, 15*time.Second, cfg.Cooldown)
	assert.Equal(t, 0.85, cfg.ViolenceThreshold)
	assert.Equal(t, "plant7/vigil", cfg.BaseTopic)
	assert.Equal(t, []string{"CAM-A", "CAM-B", "CAM-C", "CAM-D"}, cfg.CameraIDs())
	assert.Equal(t, core.CategoryViolence, cfg.Cameras[0].Category)
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("VIGIL_VIOLENCE_THRESHOLD", "1.7")
	t.Setenv("VIGIL_COOLDOWN_SECONDS", "-3")
	t.Setenv("VIGIL_SMOOTHING_WINDOW", "zero")

	cfg := FromEnv()
	assert.Equal(t, 0.70, cfg.ViolenceThreshold)
	assert.Equal(t, 40*time.Second, cfg.Cooldown)
	assert.Equal(t, 5, cfg.SmoothingWindow)
}

func TestTickBoundsAreClamped(t *testing.T) {
	t.Setenv("VIGIL_TICK_MIN_SECONDS", "10")
	t.Setenv("VIGIL_TICK_MAX_SECONDS", "4")

	cfg := FromEnv()
	assert.Equal(t, cfg.TickMin, cfg.TickMax)
}

func TestThresholdFor(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, 0.30, cfg.ThresholdFor(core.EventCrash))
	assert.Equal(t, 0.70, cfg.ThresholdFor(core.EventViolence))
	assert.Equal(t, 0.70, cfg.ThresholdFor(core.EventType("other")))
}

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/vigil-sim/internal/config"
	"github.com/sua-org/vigil-sim/internal/core"
	"github.com/sua-org/vigil-sim/internal/incidents"
	"github.com/sua-org/vigil-sim/internal/smoothing"
)

type fakeSelector struct {
	clip core.Clip
}

func (f *fakeSelector) Select(core.CameraCategory) core.Clip { return f.clip }

type fakeGateway struct {
	calls atomic.Int64
	event core.RawEvent
}

func (f *fakeGateway) Detect(_ context.Context, cameraID string, _ core.CameraCategory, _ core.Clip) core.RawEvent {
	f.calls.Add(1)
	evt := f.event
	evt.CameraID = cameraID
	evt.Timestamp = time.Now().UTC()
	return evt
}

func testConfig(cameras ...config.CameraDef) *config.Config {
	return &config.Config{
		Cameras:           cameras,
		SmoothingWindow:   1,
		ViolenceThreshold: 0.70,
		CrashThreshold:    0.30,
		Cooldown:          40 * time.Second,
		MergeWindow:       40 * time.Second,
		MaxIncidents:      200,
		TickMin:           5 * time.Millisecond,
		TickMax:           5 * time.Millisecond,
		RotationDuration:  time.Hour,
	}
}

func newTestScheduler(t *testing.T, cfg *config.Config, sel Selector, gw Gateway) (*Scheduler, *incidents.Store) {
	t.Helper()
	store := incidents.NewStore(incidents.Params{
		Cooldown:     cfg.Cooldown,
		MergeWindow:  cfg.MergeWindow,
		MaxIncidents: cfg.MaxIncidents,
		Thresholds:   cfg.Thresholds(),
		CameraIDs:    cfg.CameraIDs(),
	}, nil, nil, zerolog.Nop())
	smoother := smoothing.NewEngine(cfg.SmoothingWindow, cfg.Thresholds())
	return New(cfg, sel, gw, smoother, store, nil, zerolog.Nop()), store
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condição não satisfeita dentro do timeout")
}

func TestTickPipelineCreatesIncident(t *testing.T) {
	cfg := testConfig(config.CameraDef{ID: "CAM-042", Category: core.CategoryViolence})
	sel := &fakeSelector{clip: core.Clip{
		Ref: "violence/fight.mp4", Class: core.ClipClassViolence, Subtype: core.SubtypeViolence,
	}}
	gw := &fakeGateway{event: core.RawEvent{
		Label: core.EventViolence, Confidence: 0.95, ModelName: "fake", PeopleCount: 4,
	}}
	s, store := newTestScheduler(t, cfg, sel, gw)

	s.Start()
	defer s.Stop(time.Second)

	waitFor(t, 2*time.Second, func() bool { return store.Stats().Total >= 1 })

	list := store.List(0, "", "")
	require.NotEmpty(t, list)
	assert.Equal(t, "CAM-042", list[0].CameraID)
	assert.Equal(t, core.EventViolence, list[0].Type)
	assert.Greater(t, gw.calls.Load(), int64(0))
}

func TestCrashPathSkipsSmoothing(t *testing.T) {
	cfg := testConfig(config.CameraDef{ID: "CAM-283", Category: core.CategoryCrash})
	cfg.SmoothingWindow = 5
	sel := &fakeSelector{clip: core.Clip{
		Ref: "crash/crash.mp4", Class: core.ClipClassCrash, Subtype: core.SubtypeCrash,
	}}
	gw := &fakeGateway{event: core.RawEvent{Label: core.EventCrash, Confidence: 0.55, ModelName: "fake"}}
	s, store := newTestScheduler(t, cfg, sel, gw)

	s.Start()
	defer s.Stop(time.Second)

	// com janela 5 a média suavizada demoraria; crash dispara no primeiro tick
	waitFor(t, 2*time.Second, func() bool { return store.Stats().Crash >= 1 })
}

func TestNormalEventsCreateNothing(t *testing.T) {
	cfg := testConfig(config.CameraDef{ID: "CAM-341", Category: core.CategoryGeneric})
	sel := &fakeSelector{clip: core.Clip{
		Ref: "no_crash/traffic.mp4", Class: core.ClipClassCrash, Subtype: core.SubtypeNoCrash,
	}}
	gw := &fakeGateway{event: core.RawEvent{Label: core.EventNormal, Confidence: 0.1, ModelName: "fake"}}
	s, store := newTestScheduler(t, cfg, sel, gw)

	s.Start()
	waitFor(t, 2*time.Second, func() bool { return gw.calls.Load() >= 3 })
	require.NoError(t, s.Stop(time.Second))

	assert.Equal(t, 0, store.Stats().Total)
}

func TestEmptySelectorSkipsTickWithoutKillingWorker(t *testing.T) {
	cfg := testConfig(config.CameraDef{ID: "CAM-042", Category: core.CategoryViolence})
	sel := &fakeSelector{} // clipe zero em todo Select
	gw := &fakeGateway{event: core.RawEvent{Label: core.EventViolence, Confidence: 0.95}}
	s, store := newTestScheduler(t, cfg, sel, gw)

	s.Start()
	waitFor(t, 2*time.Second, func() bool { return s.Stats().Ticks >= 3 })
	require.NoError(t, s.Stop(time.Second))

	// ticks seguiram acontecendo, mas nunca chegou no detector
	assert.Equal(t, int64(0), gw.calls.Load())
	assert.Equal(t, 0, store.Stats().Total)
}

func TestStartIsIdempotent(t *testing.T) {
	cfg := testConfig(config.CameraDef{ID: "CAM-042", Category: core.CategoryViolence})
	sel := &fakeSelector{clip: core.Clip{Ref: "violence/fight.mp4", Class: core.ClipClassViolence, Subtype: core.SubtypeViolence}}
	gw := &fakeGateway{event: core.RawEvent{Label: core.EventNormal, Confidence: 0.1}}
	s, _ := newTestScheduler(t, cfg, sel, gw)

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	require.NoError(t, s.Stop(time.Second))
	assert.False(t, s.Running())
}

func TestStopWithoutStart(t *testing.T) {
	cfg := testConfig(config.CameraDef{ID: "CAM-042", Category: core.CategoryViolence})
	s, _ := newTestScheduler(t, cfg, &fakeSelector{}, &fakeGateway{})
	assert.NoError(t, s.Stop(time.Second))
}

func TestSnapshotKeepsDeclarationOrder(t *testing.T) {
	cfg := testConfig(
		config.CameraDef{ID: "CAM-042", Category: core.CategoryViolence},
		config.CameraDef{ID: "CAM-283", Category: core.CategoryCrash},
		config.CameraDef{ID: "CAM-341", Category: core.CategoryGeneric},
	)
	s, _ := newTestScheduler(t, cfg, &fakeSelector{}, &fakeGateway{})

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "CAM-042", snap[0].ID)
	assert.Equal(t, "CAM-283", snap[1].ID)
	assert.Equal(t, "CAM-341", snap[2].ID)
	assert.Equal(t, "offline", snap[0].Status)
}

func TestStatsReflectConfig(t *testing.T) {
	cfg := testConfig(
		config.CameraDef{ID: "CAM-042", Category: core.CategoryViolence},
		config.CameraDef{ID: "CAM-283", Category: core.CategoryCrash},
	)
	s, _ := newTestScheduler(t, cfg, &fakeSelector{}, &fakeGateway{})

	st := s.Stats()
	assert.False(t, st.Running)
	assert.Equal(t, 2, st.Cameras)
	assert.Equal(t, 40.0, st.CooldownSeconds)
	assert.Equal(t, 40.0, st.MergeWindowSeconds)
}

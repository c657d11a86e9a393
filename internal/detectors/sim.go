// internal/detectors/sim.go
package detectors

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Detectores simulados: reproduzem a distribuição de confiança do modelo
// real sem decodificar vídeo. O clipe já carrega a tag de subtipo, então a
// "inferência" é sortear uma confiança na banda certa.

const (
	simViolenceModel = "vigil-mobilenetclip-v1"
	simCrashModel    = "mobilenetv2-lstm-crash"
)

func init() {
	Register("sim", core.ClipClassViolence, func() (Detector, error) {
		return newSimDetector(core.ClipClassViolence), nil
	})
	Register("sim", core.ClipClassCrash, func() (Detector, error) {
		return newSimDetector(core.ClipClassCrash), nil
	})
}

type simDetector struct {
	family core.ClipClass

	mu  sync.Mutex
	rng *rand.Rand
}

func newSimDetector(family core.ClipClass) *simDetector {
	return &simDetector{
		family: family,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *simDetector) Name() string {
	if d.family == core.ClipClassCrash {
		return simCrashModel
	}
	return simViolenceModel
}

func (d *simDetector) Family() core.ClipClass { return d.family }

func (d *simDetector) Detect(ctx context.Context, cameraID string, clip core.Clip) (core.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return core.RawEvent{}, err
	}

	d.mu.Lock()
	latency := 50 + d.rng.Int63n(100)
	var (
		label  core.EventType
		conf   float64
		people int
	)
	switch {
	case d.family == core.ClipClassViolence && clip.Subtype == core.SubtypeViolence:
		label = core.EventViolence
		conf = d.band(0.78, 0.99)
		people = 2 + d.rng.Intn(7)
	case d.family == core.ClipClassViolence:
		label = core.EventNormal
		conf = d.band(0.02, 0.25)
	case clip.Subtype == core.SubtypeCrash:
		label = core.EventCrash
		conf = d.band(0.55, 0.97)
	default:
		label = core.EventNormal
		conf = d.band(0.01, 0.20)
	}
	d.mu.Unlock()

	return core.RawEvent{
		EventID:     uuid.NewString(),
		CameraID:    cameraID,
		Label:       label,
		Confidence:  conf,
		ModelName:   d.Name(),
		LatencyMs:   latency,
		Timestamp:   time.Now().UTC(),
		PeopleCount: people,
	}, nil
}

// band sorteia no intervalo [lo, hi). Chamar com d.mu em mãos.
func (d *simDetector) band(lo, hi float64) float64 {
	return lo + d.rng.Float64()*(hi-lo)
}

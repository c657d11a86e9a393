// internal/detectors/gateway.go
package detectors

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Gateway resolve qual detector atende cada par câmera/clipe e normaliza
// o resultado. Câmera de violência nunca invoca o detector de colisão e
// vice-versa; câmera genérica decide pela tag do clipe (resolvida na
// seleção, não re-derivada do path).
type Gateway struct {
	byFamily map[core.ClipClass]Detector
	timeout  time.Duration
	log      zerolog.Logger
}

func NewGateway(dets []Detector, timeout time.Duration, log zerolog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	byFamily := make(map[core.ClipClass]Detector, len(dets))
	for _, d := range dets {
		if d == nil {
			continue
		}
		byFamily[d.Family()] = d
	}
	return &Gateway{
		byFamily: byFamily,
		timeout:  timeout,
		log:      log.With().Str("component", "detectors").Logger(),
	}
}

// LoadFromEnv instancia os detectores habilitados.
//
// VIGIL_DETECTORS="sim" (provider; hoje só o simulado existe).
// VIGIL_DETECTOR_TIMEOUT_SECONDS limita cada chamada de inferência.
func LoadFromEnv(log zerolog.Logger) *Gateway {
	provider := strings.TrimSpace(os.Getenv("VIGIL_DETECTORS"))
	if provider == "" {
		provider = "sim"
	}
	timeout := envDurationSeconds("VIGIL_DETECTOR_TIMEOUT_SECONDS", 10*time.Second)

	var list []Detector
	for _, family := range []core.ClipClass{core.ClipClassViolence, core.ClipClassCrash} {
		d, err := newDetector(provider, family)
		if err != nil {
			log.Warn().Str("provider", provider).Str("family", string(family)).
				Err(err).Msg("detector indisponível")
			continue
		}
		list = append(list, d)
	}
	return NewGateway(list, timeout, log)
}

// Detect roda o detector certo para o par câmera/clipe. Nunca propaga
// erro nem panic pro scheduler: falha vira RawEvent degradado com
// label=normal, conf=0 e Failed=true.
func (g *Gateway) Detect(ctx context.Context, cameraID string, category core.CameraCategory, clip core.Clip) core.RawEvent {
	family := familyFor(category, clip)
	det, ok := g.byFamily[family]
	if !ok {
		return g.degraded(cameraID, fmt.Sprintf("no detector for family %s", family))
	}

	ctxDet, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	evt, err := func() (res core.RawEvent, err error) {
		defer func() {
			if r := recover(); r != nil {
				g.log.Error().Str("detector", det.Name()).
					Str("stack", string(debug.Stack())).
					Msgf("panic no detector: %v", r)
				err = fmt.Errorf("panic in detector %s", det.Name())
			}
		}()
		return det.Detect(ctxDet, cameraID, clip)
	}()
	if err != nil {
		g.log.Warn().Str("camera", cameraID).Str("detector", det.Name()).
			Err(err).Msg("detector falhou, usando resultado degradado")
		return g.degraded(cameraID, err.Error())
	}

	evt.CameraID = cameraID
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	return evt
}

// Has informa se existe detector carregado para a família.
func (g *Gateway) Has(family core.ClipClass) bool {
	_, ok := g.byFamily[family]
	return ok
}

func (g *Gateway) degraded(cameraID, reason string) core.RawEvent {
	return core.RawEvent{
		EventID:       uuid.NewString(),
		CameraID:      cameraID,
		Label:         core.EventNormal,
		Confidence:    0,
		Timestamp:     time.Now().UTC(),
		Failed:        true,
		FailureReason: reason,
	}
}

func familyFor(category core.CameraCategory, clip core.Clip) core.ClipClass {
	switch category {
	case core.CategoryViolence:
		return core.ClipClassViolence
	case core.CategoryCrash:
		return core.ClipClassCrash
	default:
		return clip.Class
	}
}

func envDurationSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}

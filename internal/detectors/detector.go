// internal/detectors/detector.go
package detectors

import (
	"context"
	"errors"
	"strings"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Detector embrulha uma família de modelo externo (violência, colisão).
// Ele recebe um clipe e devolve um RawEvent normalizado.
//
// Importante: detectores NÃO decidem incidente. Quem decide é a store,
// para manter cooldown/dedup num ponto só.
type Detector interface {
	Name() string
	Family() core.ClipClass

	// Detect pode retornar erro; o gateway converte qualquer falha em
	// resultado degradado (label=normal, conf=0) — uma câmera com detector
	// quebrado não pode derrubar as outras.
	Detect(ctx context.Context, cameraID string, clip core.Clip) (core.RawEvent, error)
}

var ErrDetectorNotFound = errors.New("no detector registered for this family")

type Factory func() (Detector, error)

// registry: provider:family -> factory
var registry = map[string]Factory{}

// Register é chamado no init() de cada provider (sim, etc).
func Register(provider string, family core.ClipClass, f Factory) {
	registry[normalize(provider)+":"+string(family)] = f
}

func newDetector(provider string, family core.ClipClass) (Detector, error) {
	if f, ok := registry[normalize(provider)+":"+string(family)]; ok {
		return f()
	}
	return nil, ErrDetectorNotFound
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

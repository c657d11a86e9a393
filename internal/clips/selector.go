// internal/clips/selector.go
package clips

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Selector escolhe o próximo clipe de uma câmera a partir dos pools
// categorizados da biblioteca. Seleção aleatória com reposição, sem
// garantia de ordem.
type Selector struct {
	mu    sync.Mutex
	rng   *rand.Rand
	pools map[core.ClipSubtype][]core.Clip
	log   zerolog.Logger

	// fração de vezes que uma câmera genérica puxa do lado "no_crash"
	// (preferência da instalação de referência por cenário de tráfego).
	genericCrashBias float64
}

// NewSelector monta um selector com pools pré-carregados (útil em teste).
func NewSelector(pools map[core.ClipSubtype][]core.Clip, log zerolog.Logger) *Selector {
	if pools == nil {
		pools = map[core.ClipSubtype][]core.Clip{}
	}
	return &Selector{
		rng:              rand.New(rand.NewSource(rand.Int63())),
		pools:            pools,
		log:              log.With().Str("component", "clips").Logger(),
		genericCrashBias: 0.6,
	}
}

// LoadFromDir varre a biblioteca local (subpastas violence/, crash/,
// no_violence/, no_crash/) e indexa todos os *.mp4. Pastas ausentes não
// são erro — viram pools vazios.
func LoadFromDir(dir string, log zerolog.Logger) (*Selector, error) {
	pools := map[core.ClipSubtype][]core.Clip{}
	subtypes := []core.ClipSubtype{
		core.SubtypeViolence,
		core.SubtypeCrash,
		core.SubtypeNoViolence,
		core.SubtypeNoCrash,
	}
	for _, st := range subtypes {
		folder := filepath.Join(dir, string(st))
		entries, err := os.ReadDir(folder)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".mp4") {
				continue
			}
			pools[st] = append(pools[st], core.Clip{
				Ref:     string(st) + "/" + e.Name(),
				Class:   st.Class(),
				Subtype: st,
			})
		}
	}

	s := NewSelector(pools, log)
	s.log.Info().
		Int("violence", len(pools[core.SubtypeViolence])).
		Int("crash", len(pools[core.SubtypeCrash])).
		Int("no_violence", len(pools[core.SubtypeNoViolence])).
		Int("no_crash", len(pools[core.SubtypeNoCrash])).
		Str("dir", dir).
		Msg("clip library indexed")
	return s, nil
}

// Select devolve o próximo clipe para a categoria da câmera.
// Clip zero significa "pule o tick desta câmera" — nunca é fatal.
func (s *Selector) Select(category core.CameraCategory) core.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case core.CategoryViolence:
		return s.pick(core.SubtypeViolence)
	case core.CategoryCrash:
		return s.pick(core.SubtypeCrash)
	default:
		// Câmeras genéricas só exibem cenário neutro, com viés pro lado
		// de tráfego; cai pro outro pool neutro se o preferido estiver vazio.
		if s.rng.Float64() < s.genericCrashBias {
			return s.pickWithFallback(core.SubtypeNoCrash, core.SubtypeNoViolence)
		}
		return s.pickWithFallback(core.SubtypeNoViolence, core.SubtypeNoCrash)
	}
}

func (s *Selector) pick(st core.ClipSubtype) core.Clip {
	pool := s.pools[st]
	if len(pool) == 0 {
		return core.Clip{}
	}
	return pool[s.rng.Intn(len(pool))]
}

func (s *Selector) pickWithFallback(first, second core.ClipSubtype) core.Clip {
	if c := s.pick(first); !c.IsZero() {
		return c
	}
	return s.pick(second)
}

// PoolSizes expõe o tamanho de cada pool (consultas de status).
func (s *Selector) PoolSizes() map[core.ClipSubtype]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.ClipSubtype]int, len(s.pools))
	for st, pool := range s.pools {
		out[st] = len(pool)
	}
	return out
}

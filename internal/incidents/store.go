// internal/incidents/store.go
package incidents

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Notifier recebe os eventos de ciclo de vida (fire-and-forget; falha de
// publicação nunca volta pra store).
type Notifier interface {
	IncidentCreated(inc core.Incident)
	IncidentUpdated(inc core.Incident)
	IncidentsCleared(by string)
}

// ClipExporter copia um clipe pro balde de re-treino. Best-effort:
// erro é logado, nunca aparece pro chamador de Feedback.
type ClipExporter interface {
	ExportClip(ctx context.Context, clipRef string, bucket core.RetrainBucket) error
}

// Params fixa os parâmetros de dedup/cooldown da store.
type Params struct {
	Cooldown     time.Duration
	MergeWindow  time.Duration
	MaxIncidents int
	Thresholds   map[core.EventType]float64
	CameraIDs    []string
}

type cooldownKey struct {
	cameraID  string
	eventType core.EventType
}

// Store é dona dos registros canônicos de incidente e das estruturas de
// dedup (ProcessedClipSet, cooldowns). Todas as sequências
// lê-decide-escreve do algoritmo de decisão rodam numa única seção
// crítica — é isso que garante que duas câmeras detectando quase junto
// não dupliquem incidente.
type Store struct {
	mu sync.Mutex

	incidents []*core.Incident // mais novo primeiro
	seq       int

	processed    map[string]struct{}
	blockedUntil map[cooldownKey]time.Time
	offline      bool

	cooldown     time.Duration
	mergeWindow  time.Duration
	maxIncidents int
	thresholds   map[core.EventType]float64
	cameraIDs    []string

	roster []core.SecurityOfficer

	notifier Notifier
	exporter ClipExporter
	log      zerolog.Logger

	now func() time.Time
}

// Roster de demonstração da instalação de referência.
var defaultRoster = []core.SecurityOfficer{
	{ID: "SEC-101", Name: "Officer Malik"},
	{ID: "SEC-102", Name: "Officer Chen"},
	{ID: "SEC-103", Name: "Officer Rivera"},
}

func NewStore(p Params, notifier Notifier, exporter ClipExporter, log zerolog.Logger) *Store {
	if p.Cooldown <= 0 {
		p.Cooldown = 40 * time.Second
	}
	if p.MergeWindow <= 0 {
		p.MergeWindow = 40 * time.Second
	}
	if p.MaxIncidents <= 0 {
		p.MaxIncidents = 200
	}
	th := make(map[core.EventType]float64, len(p.Thresholds))
	for k, v := range p.Thresholds {
		th[k] = v
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Store{
		processed:    make(map[string]struct{}),
		blockedUntil: make(map[cooldownKey]time.Time),
		cooldown:     p.Cooldown,
		mergeWindow:  p.MergeWindow,
		maxIncidents: p.MaxIncidents,
		thresholds:   th,
		cameraIDs:    append([]string(nil), p.CameraIDs...),
		roster:       append([]core.SecurityOfficer(nil), defaultRoster...),
		notifier:     notifier,
		exporter:     exporter,
		log:          log.With().Str("component", "incidents").Logger(),
		now:          time.Now,
	}
}

// Outcome é o resultado da decisão sobre uma detecção.
type Outcome string

const (
	OutcomeCreated             Outcome = "created"
	OutcomeMerged              Outcome = "merged"
	OutcomeSuppressedOffline   Outcome = "suppressed_offline"
	OutcomeSuppressedThreshold Outcome = "suppressed_threshold"
	OutcomeSuppressedDuplicate Outcome = "suppressed_duplicate"
	OutcomeSuppressedCooldown  Outcome = "suppressed_cooldown"
)

// Observation é a entrada do motor de cooldown/dedup.
type Observation struct {
	CameraID    string
	EventType   core.EventType
	Confidence  float64
	Clip        core.Clip
	ModelName   string
	PeopleCount int
}

// Report aplica o algoritmo de decisão, na ordem:
// offline → limiar → merge (mesmo clipe OU janela de tempo) →
// clipe já processado → cooldown → criação. Os passos 3-6 rodam inteiros
// sob o lock; a notificação sai depois, já com cópia.
func (s *Store) Report(obs Observation) (Outcome, *core.Incident) {
	s.mu.Lock()

	if s.offline {
		s.mu.Unlock()
		return OutcomeSuppressedOffline, nil
	}
	if obs.Confidence < s.thresholdFor(obs.EventType) {
		s.mu.Unlock()
		return OutcomeSuppressedThreshold, nil
	}

	now := s.now()

	// Merge: mesmo clipe (dedup exato, independe de tempo) ou detecção
	// dentro da janela. Preserva o status — nunca ressuscita incidente
	// resolvido/reconhecido de volta pra active.
	for _, existing := range s.incidents {
		if existing.CameraID != obs.CameraID || existing.Type != obs.EventType {
			continue
		}
		sameClip := existing.ClipRef == obs.Clip.Ref
		inWindow := now.Sub(existing.UpdatedAt) <= s.mergeWindow
		if !sameClip && !inWindow {
			continue
		}

		existing.ConfidencePct = pct(obs.Confidence)
		existing.Severity = core.SeverityFor(obs.Confidence)
		existing.Description = describe(obs.EventType, obs.Confidence, obs.PeopleCount)
		existing.ClipRef = obs.Clip.Ref
		existing.ModelName = obs.ModelName
		existing.UpdatedAt = now
		if obs.PeopleCount > 0 {
			existing.PeopleCount = obs.PeopleCount
		}
		out := existing.Clone()
		s.mu.Unlock()

		s.log.Info().Str("incident", out.ID).Str("status", string(out.Status)).
			Msg("incident merged")
		s.notifier.IncidentUpdated(out)
		return OutcomeMerged, &out
	}

	if _, done := s.processed[obs.Clip.Ref]; done {
		s.mu.Unlock()
		return OutcomeSuppressedDuplicate, nil
	}

	key := cooldownKey{obs.CameraID, obs.EventType}
	if now.Before(s.blockedUntil[key]) {
		s.mu.Unlock()
		return OutcomeSuppressedCooldown, nil
	}

	s.seq++
	inc := &core.Incident{
		ID:            fmt.Sprintf("INC-%d-%s", now.Unix(), obs.CameraID),
		Seq:           s.seq,
		CameraID:      obs.CameraID,
		Type:          obs.EventType,
		Severity:      core.SeverityFor(obs.Confidence),
		ConfidencePct: pct(obs.Confidence),
		Description:   describe(obs.EventType, obs.Confidence, obs.PeopleCount),
		Location:      "Camera " + obs.CameraID,
		ClipRef:       obs.Clip.Ref,
		ModelName:     obs.ModelName,
		Status:        core.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
		DispatchedTo:  []string{},
		PeopleCount:   obs.PeopleCount,
	}
	s.incidents = append([]*core.Incident{inc}, s.incidents...)
	if len(s.incidents) > s.maxIncidents {
		s.incidents = s.incidents[:s.maxIncidents]
	}
	s.processed[obs.Clip.Ref] = struct{}{}
	s.blockedUntil[key] = now.Add(s.cooldown)

	out := inc.Clone()
	s.mu.Unlock()

	s.log.Info().Str("incident", out.ID).Str("camera", out.CameraID).
		Str("type", string(out.Type)).Float64("confidence", out.ConfidencePct).
		Msg("incident created")
	s.notifier.IncidentCreated(out)
	return OutcomeCreated, &out
}

// SetOffline liga/desliga o modo offline do processo inteiro. Com offline
// ativo nenhuma detecção cria/mescla incidente; o estado das câmeras
// continua sendo atualizado pelo scheduler normalmente.
func (s *Store) SetOffline(enabled bool) {
	s.mu.Lock()
	s.offline = enabled
	s.mu.Unlock()
	s.log.Info().Bool("offline", enabled).Msg("offline mode changed")
}

func (s *Store) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// List devolve cópias dos incidentes (mais novo primeiro), com filtros
// opcionais. limit <= 0 devolve todos.
func (s *Store) List(limit int, eventType core.EventType, status core.IncidentStatus) []core.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		if eventType != "" && inc.Type != eventType {
			continue
		}
		if status != "" && inc.Status != status {
			continue
		}
		out = append(out, inc.Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (s *Store) Get(id string) (core.Incident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inc := s.find(id); inc != nil {
		return inc.Clone(), true
	}
	return core.Incident{}, false
}

// Stats — contagens agregadas para o painel.
type Stats struct {
	Total    int `json:"total"`
	Violence int `json:"violence"`
	Crash    int `json:"crash"`
	Active   int `json:"active"`
	Resolved int `json:"resolved"`
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Total: len(s.incidents)}
	for _, inc := range s.incidents {
		switch inc.Type {
		case core.EventViolence:
			st.Violence++
		case core.EventCrash:
			st.Crash++
		}
		switch inc.Status {
		case core.StatusActive:
			st.Active++
		case core.StatusResolved:
			st.Resolved++
		}
	}
	return st
}

// Roster devolve o quadro de segurança com status derivado: busy se o
// oficial é o atribuído de algum incidente não terminal.
func (s *Store) Roster() []core.SecurityOfficer {
	s.mu.Lock()
	defer s.mu.Unlock()

	busy := make(map[string]bool)
	for _, inc := range s.incidents {
		if !inc.Status.Terminal() && inc.AssignedSecurityID != "" {
			busy[inc.AssignedSecurityID] = true
		}
	}

	out := make([]core.SecurityOfficer, 0, len(s.roster))
	for _, officer := range s.roster {
		officer.Status = core.OfficerAvailable
		if busy[officer.ID] {
			officer.Status = core.OfficerBusy
		}
		out = append(out, officer)
	}
	return out
}

// find procura por id. Chamar com s.mu em mãos.
func (s *Store) find(id string) *core.Incident {
	for _, inc := range s.incidents {
		if inc.ID == id {
			return inc
		}
	}
	return nil
}

// releaseClipLocked reabilita o clipe e empurra os cooldowns da câmera
// pra frente, pra detecção não reaparecer no tick seguinte.
// Chamar com s.mu em mãos.
func (s *Store) releaseClipLocked(cameraID, clipRef string, now time.Time) {
	delete(s.processed, clipRef)
	until := now.Add(s.cooldown)
	s.blockedUntil[cooldownKey{cameraID, core.EventViolence}] = until
	s.blockedUntil[cooldownKey{cameraID, core.EventCrash}] = until
}

func (s *Store) thresholdFor(t core.EventType) float64 {
	if th, ok := s.thresholds[t]; ok {
		return th
	}
	return s.thresholds[core.EventViolence]
}

func pct(confidence float64) float64 {
	return math.Round(confidence*1000) / 10
}

type nopNotifier struct{}

func (nopNotifier) IncidentCreated(core.Incident)  {}
func (nopNotifier) IncidentUpdated(core.Incident)  {}
func (nopNotifier) IncidentsCleared(string)        {}

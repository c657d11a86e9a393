// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/sua-org/vigil-sim/internal/config"
	"github.com/sua-org/vigil-sim/internal/core"
	"github.com/sua-org/vigil-sim/internal/incidents"
	"github.com/sua-org/vigil-sim/internal/smoothing"
)

// Selector entrega o próximo clipe da categoria (zero = pula o tick).
type Selector interface {
	Select(category core.CameraCategory) core.Clip
}

// Gateway roda o detector certo pro par câmera/clipe; nunca retorna erro
// (falha vira RawEvent degradado).
type Gateway interface {
	Detect(ctx context.Context, cameraID string, category core.CameraCategory, clip core.Clip) core.RawEvent
}

// StatusPublisher recebe o status periódico (MQTT em produção; nil
// desliga a publicação).
type StatusPublisher interface {
	CameraStatus(state core.CameraState)
	SimulatorStatus(payload any)
}

// Scheduler é o driver de concorrência: um worker por câmera, cada um com
// timer jitterizado próprio, rodando seleção → detecção → suavização →
// decisão de incidente. Falha num tick não derruba o worker nem os
// vizinhos; uma chamada lenta de detector atrasa só a própria câmera.
type Scheduler struct {
	cfg      *config.Config
	selector Selector
	gateway  Gateway
	smoother *smoothing.Engine
	store    *incidents.Store
	status   StatusPublisher
	log      zerolog.Logger

	mu      sync.Mutex
	cameras map[string]*cameraWorker
	order   []string
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ticks      atomic.Int64
	inferences atomic.Int64
	proc       *process.Process
}

type cameraWorker struct {
	def          config.CameraDef
	clip         core.Clip
	lastRotation time.Time
	lastEvent    *core.RawEvent
	status       string
}

func New(
	cfg *config.Config,
	selector Selector,
	gateway Gateway,
	smoother *smoothing.Engine,
	store *incidents.Store,
	status StatusPublisher,
	log zerolog.Logger,
) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		selector: selector,
		gateway:  gateway,
		smoother: smoother,
		store:    store,
		status:   status,
		log:      log.With().Str("component", "scheduler").Logger(),
		cameras:  make(map[string]*cameraWorker, len(cfg.Cameras)),
	}
	for _, def := range cfg.Cameras {
		s.cameras[def.ID] = &cameraWorker{def: def, status: "offline"}
		s.order = append(s.order, def.ID)
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	return s
}

// Start sobe um worker por câmera mais o loop de status. Idempotente:
// segunda chamada é no-op, não erro.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn().Msg("scheduler já em execução, ignorando Start")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	workers := make([]*cameraWorker, 0, len(s.order))
	for _, id := range s.order {
		workers = append(workers, s.cameras[id])
	}
	s.mu.Unlock()

	for _, w := range workers {
		s.wg.Add(1)
		go s.runCamera(ctx, w)
	}
	if s.status != nil && s.cfg.StatusInterval > 0 {
		s.wg.Add(1)
		go s.runStatusLoop(ctx)
	}
	s.log.Info().Int("cameras", len(workers)).
		Dur("tick_min", s.cfg.TickMin).Dur("tick_max", s.cfg.TickMax).
		Msg("rotation scheduler started")
}

// Stop cancela todos os workers e espera o join até o timeout. Nenhum
// worker pode segurar o shutdown indefinidamente.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("rotation scheduler stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout (%s) esperando workers encerrarem", timeout)
	}
}

// Running informa se o scheduler está ativo.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runCamera(ctx context.Context, w *cameraWorker) {
	defer s.wg.Done()

	// rng próprio: o jitter existe justamente pra dessincronizar câmeras.
	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(len(w.def.ID))<<32 ^ hash(w.def.ID)))
	timer := time.NewTimer(s.jitter(rng))
	defer timer.Stop()

	s.log.Info().Str("camera", w.def.ID).Str("category", string(w.def.Category)).
		Msg("camera worker started")

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Str("camera", w.def.ID).Msg("camera worker stopped")
			return
		case <-timer.C:
			s.safeTick(ctx, w)
			timer.Reset(s.jitter(rng))
		}
	}
}

// safeTick segura qualquer panic do tick no limite do worker: loga e
// deixa o timer da câmera seguir (os vizinhos nem percebem).
func (s *Scheduler) safeTick(ctx context.Context, w *cameraWorker) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("camera", w.def.ID).
				Str("stack", string(debug.Stack())).
				Msgf("panic no tick: %v", r)
		}
	}()
	s.tick(ctx, w)
}

func (s *Scheduler) tick(ctx context.Context, w *cameraWorker) {
	s.ticks.Add(1)
	now := time.Now()

	// Rotaciona se não há clipe ou o atual já cumpriu o tempo de exibição;
	// senão segue servindo o mesmo clipe (consumidor lento ainda o exibe).
	s.mu.Lock()
	clip := w.clip
	needRotate := clip.IsZero() || now.Sub(w.lastRotation) > s.cfg.RotationDuration
	s.mu.Unlock()

	if needRotate {
		next := s.selector.Select(w.def.Category)
		if next.IsZero() {
			s.log.Warn().Str("camera", w.def.ID).Msg("nenhum clipe disponível, pulando tick")
			return
		}
		s.mu.Lock()
		w.clip = next
		w.lastRotation = now
		s.mu.Unlock()
		clip = next
		s.log.Debug().Str("camera", w.def.ID).Str("clip", clip.Ref).Msg("clip rotated")
	}

	evt := s.gateway.Detect(ctx, w.def.ID, w.def.Category, clip)
	s.inferences.Add(1)
	if evt.Failed {
		s.log.Warn().Str("camera", w.def.ID).Str("reason", evt.FailureReason).
			Msg("detecção degradada")
	}

	// Caminho suavizado pra família de violência (amortece falso positivo
	// de tick único); crash usa a confiança crua direto no limiar da store.
	switch clip.Class {
	case core.ClipClassViolence:
		isIncident, smoothed := s.smoother.Observe(w.def.ID, core.EventViolence, evt.Confidence)
		if evt.Label == core.EventViolence && isIncident {
			s.report(w, evt, clip)
		} else if evt.Label == core.EventViolence {
			s.log.Debug().Str("camera", w.def.ID).Float64("smoothed", smoothed).
				Msg("violência abaixo do sinal suavizado")
		}
	case core.ClipClassCrash:
		if evt.Label == core.EventCrash {
			s.report(w, evt, clip)
		}
	}

	s.mu.Lock()
	w.lastEvent = &evt
	w.status = "online"
	s.mu.Unlock()
}

func (s *Scheduler) report(w *cameraWorker, evt core.RawEvent, clip core.Clip) {
	outcome, inc := s.store.Report(incidents.Observation{
		CameraID:    w.def.ID,
		EventType:   evt.Label,
		Confidence:  evt.Confidence,
		Clip:        clip,
		ModelName:   evt.ModelName,
		PeopleCount: evt.PeopleCount,
	})
	ev := s.log.Debug().Str("camera", w.def.ID).Str("outcome", string(outcome))
	if inc != nil {
		ev = ev.Str("incident", inc.ID)
	}
	ev.Msg("detection reported")
}

// Snapshot devolve o estado de todas as câmeras, na ordem de declaração.
func (s *Scheduler) Snapshot() []core.CameraState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.CameraState, 0, len(s.order))
	for _, id := range s.order {
		w := s.cameras[id]
		st := core.CameraState{
			ID:           w.def.ID,
			Category:     w.def.Category,
			Status:       w.status,
			CurrentClip:  w.clip,
			LastRotation: w.lastRotation,
		}
		if w.lastEvent != nil {
			evt := *w.lastEvent
			st.LastEvent = &evt
		}
		out = append(out, st)
	}
	return out
}

// Stats do simulador: contadores, cooldowns configurados e métricas do
// processo (CPU/memória via gopsutil).
type Stats struct {
	Running            bool    `json:"running"`
	Ticks              int64   `json:"ticks"`
	Inferences         int64   `json:"inferences_run"`
	Cameras            int     `json:"cameras_monitored"`
	CooldownSeconds    float64 `json:"cooldown_s"`
	MergeWindowSeconds float64 `json:"merge_window_s"`
	RotationSeconds    float64 `json:"rotation_s"`
	TickMinSeconds     float64 `json:"tick_min_s"`
	TickMaxSeconds     float64 `json:"tick_max_s"`
	CPUPercent         float64 `json:"cpu_percent"`
	MemoryPercent      float64 `json:"memory_percent"`
	MemoryRSSBytes     uint64  `json:"memory_rss_bytes"`
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		Running:            s.Running(),
		Ticks:              s.ticks.Load(),
		Inferences:         s.inferences.Load(),
		Cameras:            len(s.order),
		CooldownSeconds:    s.cfg.Cooldown.Seconds(),
		MergeWindowSeconds: s.cfg.MergeWindow.Seconds(),
		RotationSeconds:    s.cfg.RotationDuration.Seconds(),
		TickMinSeconds:     s.cfg.TickMin.Seconds(),
		TickMaxSeconds:     s.cfg.TickMax.Seconds(),
	}
	if s.proc != nil {
		if cpu, err := s.proc.CPUPercent(); err == nil {
			st.CPUPercent = cpu
		}
		if memInfo, err := s.proc.MemoryInfo(); err == nil {
			st.MemoryRSSBytes = memInfo.RSS
		}
		if memP, err := s.proc.MemoryPercent(); err == nil {
			st.MemoryPercent = float64(memP)
		}
	}
	return st
}

func (s *Scheduler) runStatusLoop(ctx context.Context) {
	defer s.wg.Done()

	hostname, _ := os.Hostname()
	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.cfg.StatusInterval).Msg("status loop iniciado")

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.publishStatuses(hostname, t)
		}
	}
}

func (s *Scheduler) publishStatuses(hostname string, now time.Time) {
	for _, state := range s.Snapshot() {
		s.status.CameraStatus(state)
	}
	stats := s.Stats()
	s.status.SimulatorStatus(map[string]any{
		"simulator": "vigil-sim",
		"hostname":  hostname,
		"timestamp": now.UTC().Format(time.RFC3339),
		"stats":     stats,
		"offline":   s.store.Offline(),
	})
}

func (s *Scheduler) jitter(rng *rand.Rand) time.Duration {
	min, max := s.cfg.TickMin, s.cfg.TickMax
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}

func hash(s string) int64 {
	var h int64
	for _, r := range s {
		h = h*31 + int64(r)
	}
	return h
}

// internal/smoothing/smoothing.go
package smoothing

import (
	"math"
	"sync"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Engine mantém uma janela limitada de confianças por câmera e deriva
// um sinal estabilizado de incidente. Serve para amortecer falso positivo
// de frame único; o caminho de crash NÃO passa por aqui (limiar direto na
// confiança crua, selecionado por tipo de evento em quem chama).
type Engine struct {
	mu         sync.Mutex
	size       int
	windows    map[string][]float64
	thresholds map[core.EventType]float64
}

// NewEngine cria a engine com janela de tamanho size (FIFO, mais antigo
// evictado no overflow) e limiares por tipo de evento.
func NewEngine(size int, thresholds map[core.EventType]float64) *Engine {
	if size <= 0 {
		size = 5
	}
	th := make(map[core.EventType]float64, len(thresholds))
	for k, v := range thresholds {
		th[k] = v
	}
	return &Engine{
		size:       size,
		windows:    make(map[string][]float64),
		thresholds: th,
	}
}

// Observe registra a confiança na janela da câmera e devolve
// (isIncident, confiança suavizada). A suavizada é a média da janela,
// arredondada em 2 casas como no sistema de referência.
func (e *Engine) Observe(cameraID string, eventType core.EventType, confidence float64) (bool, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := e.windows[cameraID]
	w = append(w, confidence)
	if len(w) > e.size {
		w = w[len(w)-e.size:]
	}
	e.windows[cameraID] = w

	var sum float64
	for _, v := range w {
		sum += v
	}
	avg := math.Round(sum/float64(len(w))*100) / 100
	return avg >= e.ThresholdFor(eventType), avg
}

// ThresholdFor devolve o limiar configurado para o tipo; tipos sem limiar
// próprio caem no de violência.
func (e *Engine) ThresholdFor(t core.EventType) float64 {
	if th, ok := e.thresholds[t]; ok {
		return th
	}
	return e.thresholds[core.EventViolence]
}

// Reset descarta a janela de uma câmera (usado quando a câmera é
// reconfigurada; janelas nunca vazam para fora da engine).
func (e *Engine) Reset(cameraID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.windows, cameraID)
}

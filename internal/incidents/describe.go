// internal/incidents/describe.go
package incidents

import (
	"fmt"

	"github.com/sua-org/vigil-sim/internal/core"
)

// describe gera a descrição humana do incidente por faixa de confiança.
func describe(eventType core.EventType, confidence float64, people int) string {
	switch eventType {
	case core.EventViolence:
		if people > 0 {
			return fmt.Sprintf("Violence incident involving %d people", people)
		}
		switch {
		case confidence > 0.9:
			return "High-confidence violent activity detected"
		case confidence > 0.75:
			return "Physical altercation detected"
		case confidence > 0.6:
			return "Aggressive behavior detected"
		default:
			return "Suspicious activity detected"
		}
	case core.EventCrash:
		switch {
		case confidence > 0.9:
			return "Severe vehicle collision detected"
		case confidence > 0.75:
			return "Vehicle collision detected"
		case confidence > 0.6:
			return "Traffic accident detected"
		default:
			return "Possible traffic incident"
		}
	default:
		return "Incident detected"
	}
}

// internal/incidents/errors.go
package incidents

import "errors"

var (
	// ErrIncidentNotFound: id desconhecido. Sempre retornado como erro,
	// nunca como exceção que derruba o chamador.
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrTerminalState: operação de ciclo de vida sobre incidente já resolvido.
	ErrTerminalState = errors.New("incident already in terminal state")

	ErrInvalidFeedback = errors.New("invalid feedback type")
)

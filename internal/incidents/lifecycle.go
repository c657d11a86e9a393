// internal/incidents/lifecycle.go
package incidents

import (
	"context"

	"github.com/sua-org/vigil-sim/internal/core"
)

// Operações de ciclo de vida. Todas são lookup por id: id desconhecido
// retorna ErrIncidentNotFound, nunca aborta o chamador. Chamadas
// concorrentes sobre o mesmo incidente são serializadas pelo lock da
// store; no nível de campo vale last-writer-wins.

// Acknowledge registra quem reconheceu. Só a transição active →
// acknowledged muda o status; em qualquer outro estado o campo ack_by é
// atualizado sem mexer no status.
func (s *Store) Acknowledge(id, userID string) (core.Incident, error) {
	s.mu.Lock()
	inc := s.find(id)
	if inc == nil {
		s.mu.Unlock()
		return core.Incident{}, ErrIncidentNotFound
	}
	inc.AcknowledgedBy = userID
	if inc.Status == core.StatusActive {
		inc.Status = core.StatusAcknowledged
	}
	inc.UpdatedAt = s.now()
	out := inc.Clone()
	s.mu.Unlock()

	s.log.Info().Str("incident", id).Str("user", userID).Msg("incident acknowledged")
	s.notifier.IncidentUpdated(out)
	return out, nil
}

// Dispatch adiciona o oficial ao conjunto de despacho e o marca como
// atribuído principal. Válido a partir de qualquer estado não terminal.
func (s *Store) Dispatch(id, securityID string) (core.Incident, error) {
	s.mu.Lock()
	inc := s.find(id)
	if inc == nil {
		s.mu.Unlock()
		return core.Incident{}, ErrIncidentNotFound
	}
	if inc.Status.Terminal() {
		s.mu.Unlock()
		return core.Incident{}, ErrTerminalState
	}
	if !contains(inc.DispatchedTo, securityID) {
		inc.DispatchedTo = append(inc.DispatchedTo, securityID)
	}
	inc.AssignedSecurityID = securityID
	inc.Status = core.StatusDispatched
	inc.UpdatedAt = s.now()
	out := inc.Clone()
	s.mu.Unlock()

	s.log.Info().Str("incident", id).Str("security", securityID).Msg("incident dispatched")
	s.notifier.IncidentUpdated(out)
	return out, nil
}

// Resolve encerra o incidente (terminal). Tipos de resolução fora de
// {resolved, not_resolved} são normalizados pra resolved, como na
// instalação de referência. O clipe volta a poder disparar, mas a câmera
// ganha um snooze de um cooldown inteiro.
func (s *Store) Resolve(id string, resolution core.ResolutionType) (core.Incident, error) {
	if resolution != core.ResolutionResolved && resolution != core.ResolutionNotResolved {
		resolution = core.ResolutionResolved
	}

	s.mu.Lock()
	inc := s.find(id)
	if inc == nil {
		s.mu.Unlock()
		return core.Incident{}, ErrIncidentNotFound
	}
	if inc.Status.Terminal() {
		s.mu.Unlock()
		return core.Incident{}, ErrTerminalState
	}
	now := s.now()
	inc.Status = core.StatusResolved
	inc.Resolution = resolution
	inc.UpdatedAt = now
	s.releaseClipLocked(inc.CameraID, inc.ClipRef, now)
	out := inc.Clone()
	s.mu.Unlock()

	s.log.Info().Str("incident", id).Str("resolution", string(resolution)).
		Msg("incident resolved")
	s.notifier.IncidentUpdated(out)
	return out, nil
}

// Feedback aplica o retorno do operador:
//   - reject: falso positivo — terminal (resolved/false_positive) e o
//     clipe vai pro balde de re-treino de falsos positivos;
//   - confirm: marca confirmed (NÃO terminal) e exporta pro balde de
//     verdadeiros positivos.
//
// A exportação é best-effort: falha é logada e nunca volta pro chamador.
func (s *Store) Feedback(ctx context.Context, id string, fb core.FeedbackType) (core.Incident, error) {
	if fb != core.FeedbackConfirm && fb != core.FeedbackReject {
		return core.Incident{}, ErrInvalidFeedback
	}

	s.mu.Lock()
	inc := s.find(id)
	if inc == nil {
		s.mu.Unlock()
		return core.Incident{}, ErrIncidentNotFound
	}
	if inc.Status.Terminal() {
		s.mu.Unlock()
		return core.Incident{}, ErrTerminalState
	}
	now := s.now()
	inc.Feedback = fb
	bucket := core.BucketTruePositive
	if fb == core.FeedbackReject {
		inc.Status = core.StatusResolved
		inc.Resolution = core.ResolutionFalsePositive
		bucket = core.BucketFalsePositive
		s.releaseClipLocked(inc.CameraID, inc.ClipRef, now)
	} else {
		inc.Status = core.StatusConfirmed
	}
	inc.UpdatedAt = now
	out := inc.Clone()
	s.mu.Unlock()

	s.log.Info().Str("incident", id).Str("feedback", string(fb)).Msg("incident feedback")
	s.notifier.IncidentUpdated(out)

	if s.exporter != nil {
		if err := s.exporter.ExportClip(ctx, out.ClipRef, bucket); err != nil {
			s.log.Warn().Str("clip", out.ClipRef).Str("bucket", string(bucket)).
				Err(err).Msg("clip export failed")
		}
	}
	return out, nil
}

// ClearAll apaga todos os incidentes, zera o contador e o
// ProcessedClipSet e empurra o cooldown de TODAS as câmeras um período
// inteiro pra frente — o "período de graça" que impede o mesmo clipe de
// re-disparar na hora quando a rotação reavaliar antes de trocar de clipe.
func (s *Store) ClearAll(by string) int {
	s.mu.Lock()
	count := len(s.incidents)
	s.incidents = nil
	s.seq = 0
	s.processed = make(map[string]struct{})
	until := s.now().Add(s.cooldown)
	for _, camID := range s.cameraIDs {
		s.blockedUntil[cooldownKey{camID, core.EventViolence}] = until
		s.blockedUntil[cooldownKey{camID, core.EventCrash}] = until
	}
	s.mu.Unlock()

	s.log.Info().Int("count", count).Str("by", by).Msg("all incidents cleared")
	s.notifier.IncidentsCleared(by)
	return count
}

// AckAllReset é o "Dismiss All & Reset" da instalação de referência:
// hoje é um hard clear assinado pelo usuário.
func (s *Store) AckAllReset(userID string) int {
	return s.ClearAll(userID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

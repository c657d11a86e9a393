// internal/control/control.go
package control

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/incidents"
	"github.com/sua-org/vigil-sim/internal/mqttclient"
)

// Plano de controle via MQTT: o operador alterna modo offline e dispara
// clear-all sem passar pela camada de API. Payload inválido é logado e
// ignorado — nunca derruba o assinante.

type offlinePayload struct {
	OfflineMode bool `json:"offline_mode"`
}

type clearPayload struct {
	UserID string `json:"user_id"`
}

// Attach assina os tópicos de controle e liga os handlers na store.
func Attach(cli *mqttclient.Client, baseTopic string, store *incidents.Store, log zerolog.Logger) error {
	base := strings.TrimSuffix(baseTopic, "/")
	log = log.With().Str("component", "control").Logger()

	offlineTopic := base + "/control/offline"
	if err := cli.Subscribe(offlineTopic, 1, func(topic string, payload []byte) {
		var p offlinePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Warn().Str("topic", topic).Err(err).Msg("payload de controle inválido")
			return
		}
		store.SetOffline(p.OfflineMode)
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", offlineTopic, err)
	}

	clearTopic := base + "/control/clear"
	if err := cli.Subscribe(clearTopic, 1, func(topic string, payload []byte) {
		var p clearPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Warn().Str("topic", topic).Err(err).Msg("payload de controle inválido")
			return
		}
		if p.UserID == "" {
			p.UserID = "system"
		}
		count := store.ClearAll(p.UserID)
		log.Info().Int("count", count).Str("by", p.UserID).Msg("clear-all via controle")
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", clearTopic, err)
	}

	log.Info().Str("offline", offlineTopic).Str("clear", clearTopic).
		Msg("control topics subscribed")
	return nil
}

// internal/notifier/mqtt.go
package notifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/core"
	"github.com/sua-org/vigil-sim/internal/mqttclient"
)

// MQTT empurra eventos de incidente e status pros assinantes conectados.
// Fire-and-forget: sem garantia de entrega nem de ordem entre listeners;
// falha de publicação é logada e ignorada.
type MQTT struct {
	cli       *mqttclient.Client
	baseTopic string
	log       zerolog.Logger
}

func NewMQTT(cli *mqttclient.Client, baseTopic string, log zerolog.Logger) *MQTT {
	return &MQTT{
		cli:       cli,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		log:       log.With().Str("component", "notifier").Logger(),
	}
}

func (n *MQTT) IncidentCreated(inc core.Incident) {
	n.publish(n.incidentTopic("created"), false, inc)
}

func (n *MQTT) IncidentUpdated(inc core.Incident) {
	n.publish(n.incidentTopic("updated"), false, inc)
}

func (n *MQTT) IncidentsCleared(by string) {
	n.publish(n.incidentTopic("cleared"), false, map[string]any{
		"by":        by,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CameraStatus publica retained pro último estado ficar disponível a quem
// assinar depois.
func (n *MQTT) CameraStatus(state core.CameraState) {
	topic := fmt.Sprintf("%s/cameras/%s/status", n.baseTopic, state.ID)
	n.publish(topic, true, state)
}

func (n *MQTT) SimulatorStatus(payload any) {
	n.publish(n.baseTopic+"/simulator/status", true, payload)
}

// SimulatorStatusTopic é usado pelo main pra configurar o LWT.
func SimulatorStatusTopic(baseTopic string) string {
	return strings.TrimSuffix(baseTopic, "/") + "/simulator/status"
}

func (n *MQTT) incidentTopic(kind string) string {
	return fmt.Sprintf("%s/incidents/%s", n.baseTopic, kind)
}

func (n *MQTT) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		n.log.Error().Str("topic", topic).Err(err).Msg("marshal failed")
		return
	}
	if err := n.cli.Publish(topic, 1, retained, payload); err != nil {
		n.log.Warn().Str("topic", topic).Err(err).Msg("publish failed")
	}
}

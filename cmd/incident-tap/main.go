// cmd/incident-tap/main.go
//
// Assinante de depuração: imprime no terminal tudo que o simulador
// publica em <base>/incidents/#. Útil pra acompanhar criação, merge e
// ciclo de vida sem subir o painel.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/mqttclient"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("não foi possível carregar .env")
	}

	base := getenv("MQTT_BASE_TOPIC", "vigil/sim")
	topic := base + "/incidents/#"

	cli, err := mqttclient.NewClientFromEnv("vigil-incident-tap", log)
	if err != nil {
		log.Fatal().Err(err).Msg("erro ao conectar no MQTT")
	}
	defer cli.Close()

	var count atomic.Int64
	err = cli.Subscribe(topic, 1, func(topic string, payload []byte) {
		n := count.Add(1)

		var msg map[string]any
		if err := json.Unmarshal(payload, &msg); err != nil {
			fmt.Printf("\n[%d] %s (payload não-JSON, %d bytes)\n", n, topic, len(payload))
			return
		}

		fmt.Printf("\n[%d] %s\n", n, topic)
		if id, ok := msg["id"].(string); ok {
			line := "  incident=" + id
			if t, ok := msg["type"].(string); ok {
				line += " type=" + t
			}
			if st, ok := msg["status"].(string); ok {
				line += " status=" + st
			}
			if cam, ok := msg["cameraId"].(string); ok {
				line += " camera=" + cam
			}
			if conf, ok := msg["confidence"].(float64); ok {
				line += fmt.Sprintf(" confidence=%.1f%%", conf)
			}
			fmt.Println(line)
		}
		pretty, err := json.MarshalIndent(msg, "  ", "  ")
		if err != nil {
			return
		}
		fmt.Println("  " + string(pretty))
	})
	if err != nil {
		log.Fatal().Str("topic", topic).Err(err).Msg("erro ao assinar tópico")
	}

	log.Info().Str("topic", topic).Msg("aguardando incidentes (ctrl-c pra sair)")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info().Int64("mensagens", count.Load()).Msg("encerrando")
	// Dá tempo do broker processar o DISCONNECT antes do processo morrer
	time.Sleep(100 * time.Millisecond)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

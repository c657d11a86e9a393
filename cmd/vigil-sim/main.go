// cmd/vigil-sim/main.go
package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sua-org/vigil-sim/internal/clips"
	"github.com/sua-org/vigil-sim/internal/config"
	"github.com/sua-org/vigil-sim/internal/control"
	"github.com/sua-org/vigil-sim/internal/detectors"
	"github.com/sua-org/vigil-sim/internal/export"
	"github.com/sua-org/vigil-sim/internal/incidents"
	"github.com/sua-org/vigil-sim/internal/mqttclient"
	"github.com/sua-org/vigil-sim/internal/notifier"
	"github.com/sua-org/vigil-sim/internal/scheduler"
	"github.com/sua-org/vigil-sim/internal/smoothing"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Carrega .env na raiz (se não existir, só loga aviso)
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("não foi possível carregar .env")
	}
	if lvl, err := zerolog.ParseLevel(getenv("VIGIL_LOG_LEVEL", "info")); err == nil {
		log = log.Level(lvl)
	}

	cfg := config.FromEnv()

	selector, err := clips.LoadFromDir(cfg.ClipLibraryDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("erro ao indexar biblioteca de clipes")
	}

	mqttCli, err := mqttclient.NewClient(mqttclient.Config{
		Host:        getenv("MQTT_HOST", "localhost"),
		Port:        getenvInt("MQTT_PORT", 1883),
		Username:    os.Getenv("MQTT_USERNAME"),
		Password:    os.Getenv("MQTT_PASSWORD"),
		ClientID:    getenv("MQTT_CLIENT_ID", "vigil-sim"),
		WillTopic:   notifier.SimulatorStatusTopic(cfg.BaseTopic),
		WillPayload: []byte(`{"simulator":"vigil-sim","running":false}`),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("erro ao conectar no MQTT")
	}
	defer mqttCli.Close()

	notify := notifier.NewMQTT(mqttCli, cfg.BaseTopic, log)

	// Exporter de re-treino é opcional; sem MinIO o feedback segue
	// funcionando, só não copia clipe.
	var exporter incidents.ClipExporter
	if minioExp, err := export.NewMinioExporterFromEnv(cfg.ClipLibraryDir, log); err != nil {
		log.Warn().Err(err).Msg("MinIO não inicializado, export de clipes desabilitado")
	} else {
		exporter = minioExp
	}

	store := incidents.NewStore(incidents.Params{
		Cooldown:     cfg.Cooldown,
		MergeWindow:  cfg.MergeWindow,
		MaxIncidents: cfg.MaxIncidents,
		Thresholds:   cfg.Thresholds(),
		CameraIDs:    cfg.CameraIDs(),
	}, notify, exporter, log)

	smoother := smoothing.NewEngine(cfg.SmoothingWindow, cfg.Thresholds())
	gateway := detectors.LoadFromEnv(log)

	sched := scheduler.New(cfg, selector, gateway, smoother, store, notify, log)
	sched.Start()

	if err := control.Attach(mqttCli, cfg.BaseTopic, store, log); err != nil {
		log.Warn().Err(err).Msg("plano de controle indisponível")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info().Msg("sinal recebido, encerrando...")
	if err := sched.Stop(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown não limpo")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			return x
		}
	}
	return def
}

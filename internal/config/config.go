// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sua-org/vigil-sim/internal/core"
)

// CameraDef amarra um id de câmera à sua categoria.
type CameraDef struct {
	ID       string
	Category core.CameraCategory
}

// Config concentra tudo que vem do ambiente. Carregada uma vez no boot;
// depois disso é somente leitura.
type Config struct {
	Cameras []CameraDef

	// Biblioteca local de clipes (subpastas violence/, crash/,
	// no_violence/, no_crash/).
	ClipLibraryDir string

	SmoothingWindow   int
	ViolenceThreshold float64
	CrashThreshold    float64

	Cooldown    time.Duration
	MergeWindow time.Duration

	MaxIncidents int

	// Intervalo jitterizado entre ticks de uma câmera.
	TickMin time.Duration
	TickMax time.Duration

	// Quanto tempo um clipe fica "no ar" antes de rotacionar.
	RotationDuration time.Duration

	StatusInterval time.Duration

	BaseTopic string
}

// Defaults espelham a instalação de referência.
var (
	defaultViolenceCameras = []string{"CAM-042", "CAM-128", "CAM-089", "CAM-156"}
	defaultCrashCameras    = []string{"CAM-283", "CAM-074", "CAM-195", "CAM-267"}
	defaultGenericCameras  = []string{"CAM-341", "CAM-412", "CAM-523", "CAM-604"}
)

// FromEnv monta a configuração a partir das variáveis de ambiente
// (o .env já foi carregado pelo main via godotenv).
func FromEnv() *Config {
	cfg := &Config{
		ClipLibraryDir:    getenv("VIGIL_CLIP_DIR", "./Videos"),
		SmoothingWindow:   getenvInt("VIGIL_SMOOTHING_WINDOW", 5),
		ViolenceThreshold: getenvFloat("VIGIL_VIOLENCE_THRESHOLD", 0.70),
		CrashThreshold:    getenvFloat("VIGIL_CRASH_THRESHOLD", 0.30),
		Cooldown:          envDurationSeconds("VIGIL_COOLDOWN_SECONDS", 40*time.Second),
		MergeWindow:       envDurationSeconds("VIGIL_MERGE_WINDOW_SECONDS", 40*time.Second),
		MaxIncidents:      getenvInt("VIGIL_MAX_INCIDENTS", 200),
		TickMin:           envDurationSeconds("VIGIL_TICK_MIN_SECONDS", 6*time.Second),
		TickMax:           envDurationSeconds("VIGIL_TICK_MAX_SECONDS", 10*time.Second),
		RotationDuration:  envDurationSeconds("VIGIL_ROTATION_SECONDS", 120*time.Second),
		StatusInterval:    envDurationSeconds("VIGIL_STATUS_INTERVAL_SECONDS", 30*time.Second),
		BaseTopic:         strings.TrimSuffix(getenv("MQTT_BASE_TOPIC", "vigil/sim"), "/"),
	}
	if cfg.TickMax < cfg.TickMin {
		cfg.TickMax = cfg.TickMin
	}

	cfg.Cameras = append(cfg.Cameras, defs(envCSV("VIGIL_VIOLENCE_CAMERAS", defaultViolenceCameras), core.CategoryViolence)...)
	cfg.Cameras = append(cfg.Cameras, defs(envCSV("VIGIL_CRASH_CAMERAS", defaultCrashCameras), core.CategoryCrash)...)
	cfg.Cameras = append(cfg.Cameras, defs(envCSV("VIGIL_GENERIC_CAMERAS", defaultGenericCameras), core.CategoryGeneric)...)
	return cfg
}

// ThresholdFor devolve o limiar de confiança do tipo de evento.
// Tipos desconhecidos usam o limiar de violência (o mais conservador).
func (c *Config) ThresholdFor(t core.EventType) float64 {
	if t == core.EventCrash {
		return c.CrashThreshold
	}
	return c.ViolenceThreshold
}

// Thresholds materializa o mapa por tipo de evento consumido pela
// smoothing engine e pela store.
func (c *Config) Thresholds() map[core.EventType]float64 {
	return map[core.EventType]float64{
		core.EventViolence: c.ViolenceThreshold,
		core.EventCrash:    c.CrashThreshold,
	}
}

// CameraIDs lista só os ids, na ordem de declaração.
func (c *Config) CameraIDs() []string {
	out := make([]string, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		out = append(out, cam.ID)
	}
	return out
}

func defs(ids []string, cat core.CameraCategory) []CameraDef {
	out := make([]CameraDef, 0, len(ids))
	for _, id := range ids {
		out = append(out, CameraDef{ID: id, Category: cat})
	}
	return out
}

func envCSV(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	x, err := strconv.Atoi(v)
	if err != nil || x <= 0 {
		return def
	}
	return x
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil || x < 0 || x > 1 {
		return def
	}
	return x
}

func envDurationSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}

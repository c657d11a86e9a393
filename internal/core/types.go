// internal/core/types.go
package core

import "time"

// CameraCategory define qual família de detector se aplica à câmera.
type CameraCategory string

const (
	CategoryViolence CameraCategory = "violence"
	CategoryCrash    CameraCategory = "crash"
	CategoryGeneric  CameraCategory = "generic"
)

// ClipClass indica qual família de detector entende o clipe.
type ClipClass string

const (
	ClipClassViolence ClipClass = "violence"
	ClipClassCrash    ClipClass = "crash"
)

// ClipSubtype é o subtipo concreto do clipe dentro da biblioteca
// (pasta de origem). Resolvido UMA vez na seleção — nunca re-derivado
// do path depois.
type ClipSubtype string

const (
	SubtypeViolence   ClipSubtype = "violence"
	SubtypeNoViolence ClipSubtype = "no_violence"
	SubtypeCrash      ClipSubtype = "crash"
	SubtypeNoCrash    ClipSubtype = "no_crash"
)

// Class retorna a família de detector correspondente ao subtipo.
func (s ClipSubtype) Class() ClipClass {
	if s == SubtypeCrash || s == SubtypeNoCrash {
		return ClipClassCrash
	}
	return ClipClassViolence
}

// Incident indica se o subtipo carrega um evento real (e não cenário neutro).
func (s ClipSubtype) Incident() bool {
	return s == SubtypeViolence || s == SubtypeCrash
}

// Clip é a referência opaca a um segmento pré-gravado que faz as vezes
// de feed ao vivo de uma câmera.
type Clip struct {
	Ref     string      `json:"ref"`
	Class   ClipClass   `json:"class"`
	Subtype ClipSubtype `json:"subtype"`
}

func (c Clip) IsZero() bool { return c.Ref == "" }

// EventType é o tipo de incidente que um detector pode reportar.
type EventType string

const (
	EventViolence EventType = "violence"
	EventCrash    EventType = "crash"

	// EventNormal significa "nada detectado" — nunca vira incidente.
	EventNormal EventType = "normal"
)

// RawEvent é o resultado normalizado de uma chamada ao detector externo.
type RawEvent struct {
	EventID     string    `json:"event_id"`
	CameraID    string    `json:"camera_id"`
	Label       EventType `json:"label"`
	Confidence  float64   `json:"confidence"`
	ModelName   string    `json:"model"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
	PeopleCount int       `json:"people_count,omitempty"`

	// Failed marca resultado degradado (detector falhou; label=normal, conf=0).
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// CameraState é o estado observável de uma câmera simulada.
// Mutado apenas dentro do tick do scheduler daquela câmera.
type CameraState struct {
	ID           string         `json:"camera_id"`
	Category     CameraCategory `json:"category"`
	Status       string         `json:"status"` // online | offline
	CurrentClip  Clip           `json:"clip"`
	LastRotation time.Time      `json:"last_rotation"`
	LastEvent    *RawEvent      `json:"last_event,omitempty"`
}

// Severity é derivada da confiança do detector, nunca armazenada à parte.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFor mapeia confiança [0,1] em severidade.
func SeverityFor(confidence float64) Severity {
	switch {
	case confidence < 0.6:
		return SeverityLow
	case confidence < 0.75:
		return SeverityMedium
	case confidence < 0.9:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// IncidentStatus — máquina de estados do ciclo de vida.
type IncidentStatus string

const (
	StatusActive       IncidentStatus = "active"
	StatusAcknowledged IncidentStatus = "acknowledged"
	StatusDispatched   IncidentStatus = "dispatched"
	StatusResolved     IncidentStatus = "resolved"

	// StatusConfirmed é um marcador NÃO terminal (feedback de confirmação),
	// ao lado de active/acknowledged/dispatched.
	StatusConfirmed IncidentStatus = "confirmed"
)

// Terminal indica se o status encerra o ciclo de vida do incidente.
func (s IncidentStatus) Terminal() bool { return s == StatusResolved }

type ResolutionType string

const (
	ResolutionResolved      ResolutionType = "resolved"
	ResolutionNotResolved   ResolutionType = "not_resolved"
	ResolutionFalsePositive ResolutionType = "false_positive"
)

type FeedbackType string

const (
	FeedbackConfirm FeedbackType = "confirm"
	FeedbackReject  FeedbackType = "reject"
)

// RetrainBucket separa clipes exportados para re-treino do modelo.
type RetrainBucket string

const (
	BucketTruePositive  RetrainBucket = "true_positive"
	BucketFalsePositive RetrainBucket = "false_positive"
)

// Incident é a unidade canônica do sistema.
type Incident struct {
	ID            string         `json:"id"`
	Seq           int            `json:"incident_number"`
	CameraID      string         `json:"cameraId"`
	Type          EventType      `json:"type"`
	Severity      Severity       `json:"severity"`
	ConfidencePct float64        `json:"confidence"` // percentual 0-100
	Description   string         `json:"description"`
	Location      string         `json:"location"`
	ClipRef       string         `json:"video_url"`
	ModelName     string         `json:"model"`
	Status        IncidentStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	AcknowledgedBy     string         `json:"ack_by,omitempty"`
	AssignedSecurityID string         `json:"assigned_security,omitempty"`
	DispatchedTo       []string       `json:"dispatched_to"`
	Resolution         ResolutionType `json:"resolution_type,omitempty"`
	Feedback           FeedbackType   `json:"feedback_type,omitempty"`
	PeopleCount        int            `json:"people_count,omitempty"`
}

// Clone devolve uma cópia segura para publicar fora do lock da store.
func (i *Incident) Clone() Incident {
	out := *i
	if i.DispatchedTo != nil {
		out.DispatchedTo = append([]string(nil), i.DispatchedTo...)
	}
	return out
}

// OfficerStatus é derivado: busy se o oficial está atribuído a algum
// incidente não terminal, available caso contrário.
type OfficerStatus string

const (
	OfficerAvailable OfficerStatus = "available"
	OfficerBusy      OfficerStatus = "busy"
)

// SecurityOfficer é uma entrada estática do roster de segurança.
type SecurityOfficer struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status OfficerStatus `json:"status"`
}

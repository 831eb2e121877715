package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Multa estados:
//
//	pendiente_identificacion  — initial, set at creation
//	conductor_identificado    — conductor fields populated
//	error_identificacion      — identification failed terminally (no DNI / 404)
//	pendiente | enviada | pagada | vencida | cancelada — manual business states
const (
	EstadoPendienteIdentificacion = "pendiente_identificacion"
	EstadoConductorIdentificado   = "conductor_identificado"
	EstadoErrorIdentificacion     = "error_identificacion"
	EstadoPendiente               = "pendiente"
	EstadoEnviada                 = "enviada"
	EstadoPagada                  = "pagada"
	EstadoVencida                 = "vencida"
	EstadoCancelada               = "cancelada"
)

// EstadosActualizables are the states accepted by the status-update operation.
// pendiente_identificacion is creation-only and deliberately excluded.
var EstadosActualizables = []string{
	EstadoConductorIdentificado,
	EstadoErrorIdentificacion,
	EstadoPendiente,
	EstadoEnviada,
	EstadoPagada,
	EstadoVencida,
	EstadoCancelada,
}

// Multa is a traffic fine assigned to an empresa via its vehicle plate.
type Multa struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	NumeroExpediente string          `gorm:"uniqueIndex;not null"`
	Matricula        string          `gorm:"index;not null"`
	FechaInfraccion  time.Time       `gorm:"type:date;not null"`
	OrganismoEmisor  string          `gorm:"not null"`
	ImporteMulta     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// ImporteGestion is snapshotted from empresas.precio_gestion at creation
	// and never recomputed afterwards.
	ImporteGestion decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// Conductor fields — null until identification succeeds
	ConductorDNI       *string `gorm:"column:conductor_dni"`
	ConductorNombre    *string
	ConductorEmail     *string
	ConductorTelefono  *string
	ConductorDireccion *string

	Estado                     string `gorm:"not null;default:'pendiente_identificacion'"`
	Observaciones              *string
	Facturada                  bool       `gorm:"not null;default:false"`
	FechaComunicacionOrganismo *time.Time `gorm:"column:fecha_comunicacion_organismo"`

	// Retry fields — used by the identificacion retry cron for multas whose
	// microservicio was unreachable
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Empresa *Empresa `gorm:"foreignKey:EmpresaID"`
}

func (Multa) TableName() string { return "multas" }

// EstadoActualizable reports whether estado is accepted by the
// status-update operation.
func EstadoActualizable(estado string) bool {
	for _, e := range EstadosActualizables {
		if e == estado {
			return true
		}
	}
	return false
}

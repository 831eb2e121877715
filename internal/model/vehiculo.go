package model

import (
	"time"

	"github.com/google/uuid"
)

// Vehiculo maps a plate to its owning empresa and habitual conductor.
// Read-only lookup data for the multa pipeline; mutation is admin-driven.
type Vehiculo struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID uuid.UUID `gorm:"type:uuid;index;not null"`
	Matricula string    `gorm:"index;not null"`
	// DNIConductor is the national id of the habitual driver; nullable —
	// without it identification fails locally.
	DNIConductor *string `gorm:"column:dni_conductor"`
	Marca        *string
	Modelo       *string
	Activo       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Vehiculo) TableName() string { return "vehiculos" }

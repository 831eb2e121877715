package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Empresa is a fleet-management client company.
// APIURL/APIKey point to the empresa's own conductor microservice; when either
// is missing no automated identification is possible for its multas.
type Empresa struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"not null"`
	CIF       string    `gorm:"column:cif;uniqueIndex;not null"`
	Email     string    `gorm:"not null"`
	Telefono  *string
	Direccion *string
	APIURL    *string `gorm:"column:api_url"`
	APIKey    *string `gorm:"column:api_key"`
	// ServicioRecurso: whether the empresa contracted fine-contesting service
	ServicioRecurso bool            `gorm:"not null;default:false"`
	PrecioGestion   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:15.00"`
	PrecioRecurso   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:150.00"`
	Activo          bool            `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Vehiculos []Vehiculo `gorm:"foreignKey:EmpresaID"`
}

func (Empresa) TableName() string { return "empresas" }

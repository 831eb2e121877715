package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Factura estados — fixed enum validated on update.
var EstadosFactura = []string{"pendiente", "enviada", "pagada", "vencida", "cancelada"}

// Factura aggregates an empresa's billed multas over a period.
// Rows are produced by the SQL function generar_facturas_mes(); a multa is
// covered by a factura when facturada = true and its
// fecha_comunicacion_organismo falls within [periodo_inicio, periodo_fin].
type Factura struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID     uuid.UUID       `gorm:"type:uuid;index;not null"`
	NumeroFactura string          `gorm:"uniqueIndex;not null"`
	FechaEmision  time.Time       `gorm:"type:date;not null"`
	PeriodoInicio time.Time       `gorm:"type:date;not null"`
	PeriodoFin    time.Time       `gorm:"type:date;not null"`
	BaseImponible decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IVA           decimal.Decimal `gorm:"type:decimal(10,2);not null;column:iva"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Estado        string          `gorm:"not null;default:'pendiente'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Empresa *Empresa `gorm:"foreignKey:EmpresaID"`
}

func (Factura) TableName() string { return "facturas" }

// EstadoFacturaValido reports whether estado is in the factura enum.
func EstadoFacturaValido(estado string) bool {
	for _, e := range EstadosFactura {
		if e == estado {
			return true
		}
	}
	return false
}

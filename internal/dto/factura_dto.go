package dto

import "github.com/shopspring/decimal"

// GenerarFacturasRequest triggers the monthly billing aggregation.
type GenerarFacturasRequest struct {
	Mes  int `json:"mes"  validate:"required,min=1,max=12"`
	Anio int `json:"anio" validate:"required,min=2000,max=2100"`
}

type ActualizarEstadoFacturaRequest struct {
	Estado string `json:"estado" validate:"required"`
}

// FacturaFilter is bound from the query string of GET /v1/facturas.
type FacturaFilter struct {
	EmpresaID  string `form:"empresa_id"  validate:"omitempty,uuid"`
	Estado     string `form:"estado"`
	FechaDesde string `form:"fecha_desde" validate:"omitempty,datetime=2006-01-02"`
	FechaHasta string `form:"fecha_hasta" validate:"omitempty,datetime=2006-01-02"`
}

type FacturaResponse struct {
	ID            string          `json:"id"`
	EmpresaID     string          `json:"empresa_id"`
	EmpresaNombre string          `json:"empresa_nombre,omitempty"`
	EmpresaCIF    string          `json:"empresa_cif,omitempty"`
	NumeroFactura string          `json:"numero_factura"`
	FechaEmision  string          `json:"fecha_emision"`
	PeriodoInicio string          `json:"periodo_inicio"`
	PeriodoFin    string          `json:"periodo_fin"`
	BaseImponible decimal.Decimal `json:"base_imponible"`
	IVA           decimal.Decimal `json:"iva"`
	Total         decimal.Decimal `json:"total"`
	Estado        string          `json:"estado"`
	// Multas: only populated on the detail endpoint — the multas covered by
	// this factura per the eligibility predicate.
	Multas []MultaResponse `json:"multas,omitempty"`
}

package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearMultaRequest is the body of POST /v1/multas.
type CrearMultaRequest struct {
	NumeroExpediente string          `json:"numero_expediente" validate:"required,min=3"`
	Matricula        string          `json:"matricula"         validate:"required,min=4"`
	FechaInfraccion  string          `json:"fecha_infraccion"  validate:"required,datetime=2006-01-02"`
	OrganismoEmisor  string          `json:"organismo_emisor"  validate:"required"`
	ImporteMulta     decimal.Decimal `json:"importe_multa"     validate:"required,gt=0"`
}

// ActualizarEstadoRequest is the body of PUT /v1/multas/:id/estado.
// Estado is validated against the multa enum in the service layer so the
// response can distinguish "missing" (400) from "out of enum" (400 with detail).
type ActualizarEstadoRequest struct {
	Estado        string  `json:"estado" validate:"required"`
	Observaciones *string `json:"observaciones"`
}

// MultaFilter is bound from the query string of GET /v1/multas.
type MultaFilter struct {
	EmpresaID  string `form:"empresa_id"  validate:"omitempty,uuid"`
	Estado     string `form:"estado"`
	Matricula  string `form:"matricula"`
	FechaDesde string `form:"fecha_desde" validate:"omitempty,datetime=2006-01-02"`
	FechaHasta string `form:"fecha_hasta" validate:"omitempty,datetime=2006-01-02"`
	Facturada  *bool  `form:"facturada"`
	Pagina     int    `form:"pagina,default=1"  validate:"min=1"`
	Limite     int    `form:"limite,default=20" validate:"min=1,max=100"`
}

// EstadisticasFilter is bound from GET /v1/multas/stats/general.
type EstadisticasFilter struct {
	EmpresaID   string `form:"empresa_id"   validate:"omitempty,uuid"`
	FechaInicio string `form:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
	FechaFin    string `form:"fecha_fin"    validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MultaResponse struct {
	ID               string          `json:"id"`
	EmpresaID        string          `json:"empresa_id"`
	NumeroExpediente string          `json:"numero_expediente"`
	Matricula        string          `json:"matricula"`
	FechaInfraccion  string          `json:"fecha_infraccion"`
	OrganismoEmisor  string          `json:"organismo_emisor"`
	ImporteMulta     decimal.Decimal `json:"importe_multa"`
	ImporteGestion   decimal.Decimal `json:"importe_gestion"`

	ConductorDNI       *string `json:"conductor_dni"`
	ConductorNombre    *string `json:"conductor_nombre"`
	ConductorEmail     *string `json:"conductor_email"`
	ConductorTelefono  *string `json:"conductor_telefono"`
	ConductorDireccion *string `json:"conductor_direccion"`

	Estado                     string  `json:"estado"`
	Observaciones              *string `json:"observaciones"`
	Facturada                  bool    `json:"facturada"`
	FechaComunicacionOrganismo *string `json:"fecha_comunicacion_organismo"`
	CreatedAt                  string  `json:"created_at"`
}

type MultaListResponse struct {
	Data   []MultaResponse `json:"data"`
	Total  int64           `json:"total"`
	Pagina int             `json:"pagina"`
	Limite int             `json:"limite"`
}

// EstadisticasResponse aggregates multa counts and amounts for a period.
type EstadisticasResponse struct {
	TotalMultas    int64            `json:"total_multas"`
	PorEstado      map[string]int64 `json:"por_estado"`
	ImporteMultas  decimal.Decimal  `json:"importe_multas"`
	ImporteGestion decimal.Decimal  `json:"importe_gestion"`
}

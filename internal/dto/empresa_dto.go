package dto

import "github.com/shopspring/decimal"

type CrearEmpresaRequest struct {
	Nombre          string           `json:"nombre"    validate:"required"`
	CIF             string           `json:"cif"       validate:"required,min=9,max=9"`
	Email           string           `json:"email"     validate:"required,email"`
	Telefono        *string          `json:"telefono"`
	Direccion       *string          `json:"direccion"`
	APIURL          *string          `json:"api_url"   validate:"omitempty,url"`
	APIKey          *string          `json:"api_key"`
	ServicioRecurso bool             `json:"servicio_recurso"`
	PrecioGestion   *decimal.Decimal `json:"precio_gestion" validate:"omitempty,gt=0"`
	PrecioRecurso   *decimal.Decimal `json:"precio_recurso" validate:"omitempty,gt=0"`
}

// ActualizarEmpresaRequest: every field optional, COALESCE-style partial update.
type ActualizarEmpresaRequest struct {
	Nombre          *string          `json:"nombre"`
	Email           *string          `json:"email"     validate:"omitempty,email"`
	Telefono        *string          `json:"telefono"`
	Direccion       *string          `json:"direccion"`
	APIURL          *string          `json:"api_url"   validate:"omitempty,url"`
	APIKey          *string          `json:"api_key"`
	ServicioRecurso *bool            `json:"servicio_recurso"`
	PrecioGestion   *decimal.Decimal `json:"precio_gestion" validate:"omitempty,gt=0"`
	PrecioRecurso   *decimal.Decimal `json:"precio_recurso" validate:"omitempty,gt=0"`
	Activo          *bool            `json:"activo"`
}

type EmpresaResponse struct {
	ID              string          `json:"id"`
	Nombre          string          `json:"nombre"`
	CIF             string          `json:"cif"`
	Email           string          `json:"email"`
	Telefono        *string         `json:"telefono"`
	Direccion       *string         `json:"direccion"`
	APIURL          *string         `json:"api_url"`
	ServicioRecurso bool            `json:"servicio_recurso"`
	PrecioGestion   decimal.Decimal `json:"precio_gestion"`
	PrecioRecurso   decimal.Decimal `json:"precio_recurso"`
	Activo          bool            `json:"activo"`
	CreatedAt       string          `json:"created_at"`
}

package dto

// CrearVehiculoRequest registers a vehicle (and optionally its habitual
// conductor's DNI) under an empresa's fleet.
type CrearVehiculoRequest struct {
	Matricula    string  `json:"matricula"     validate:"required,min=4"`
	DNIConductor *string `json:"dni_conductor" validate:"omitempty,min=8"`
	Marca        *string `json:"marca"`
	Modelo       *string `json:"modelo"`
}

type VehiculoResponse struct {
	ID           string  `json:"id"`
	EmpresaID    string  `json:"empresa_id"`
	Matricula    string  `json:"matricula"`
	DNIConductor *string `json:"dni_conductor"`
	Marca        *string `json:"marca"`
	Modelo       *string `json:"modelo"`
	Activo       bool    `json:"activo"`
}

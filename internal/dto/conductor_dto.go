package dto

// ConductorData is the payload returned by an empresa's conductor
// microservice (GET {api_url}/api/conductor?dni=...) and the value cached
// under conductor:{empresaId}:{dni}.
type ConductorData struct {
	DNI          string `json:"dni"`
	Nombre       string `json:"nombre"`
	Apellidos    string `json:"apellidos"`
	Email        string `json:"email"`
	Telefono     string `json:"telefono"`
	Direccion    string `json:"direccion"`
	CodigoPostal string `json:"codigo_postal"`
	Ciudad       string `json:"ciudad"`
}

// ConexionResponse is the structured result of a connectivity probe against
// an empresa's microservice. Transport errors never escape as errors — they
// are folded into Available=false plus a detail message.
type ConexionResponse struct {
	Available bool   `json:"available"`
	Detail    string `json:"detail"`
}

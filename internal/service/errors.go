package service

import "errors"

// Domain error taxonomy. Handlers classify these with errors.Is into HTTP
// status codes; workers use them to pick the terminal vs. retryable path.
var (
	// Not-found family → 404
	ErrEmpresaNoEncontrada   = errors.New("no se encontro empresa para la matricula indicada")
	ErrMultaNoEncontrada     = errors.New("multa no encontrada")
	ErrFacturaNoEncontrada   = errors.New("factura no encontrada")
	ErrConductorNoEncontrado = errors.New("conductor no encontrado en el sistema de la empresa")

	// Conflict family → 409
	ErrExpedienteDuplicado = errors.New("ya existe una multa con ese numero de expediente")
	ErrCIFDuplicado        = errors.New("ya existe una empresa con ese CIF")

	// Invalid input → 400
	ErrEstadoInvalido = errors.New("estado invalido")

	// ErrEmpresaSinAPI: empresa inactive or without api_url/api_key —
	// terminal for the identification attempt, never retried automatically.
	ErrEmpresaSinAPI = errors.New("empresa sin configuracion de API o inactiva")

	// ErrMicroservicioNoDisponible: transient transport failure — the retry
	// sweep re-attempts these.
	ErrMicroservicioNoDisponible = errors.New("no se pudo contactar con el microservicio de la empresa")
)

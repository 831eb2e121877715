package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
)

// Per-call deadlines. Lookups get 5s; health probes are cheaper and get 3s.
// These are hard limits — no retry happens inside a single attempt.
const (
	consultaTimeout  = 5 * time.Second
	conexionTimeout  = 3 * time.Second
	apiKeyHeaderName = "X-API-Key"
)

// Transport-level sentinel errors. The service layer maps these onto the
// domain taxonomy; raw *url.Error values never leave this package.
var (
	// ErrConductorNotFound: the microservicio answered 404 or an empty
	// payload — a valid terminal outcome, not a transport failure.
	ErrConductorNotFound = errors.New("conductor no encontrado en el microservicio")
	// ErrMicroservicioUnreachable: timeout, connection failure or any
	// non-success status other than 404 — transient, retryable upstream.
	ErrMicroservicioUnreachable = errors.New("microservicio no disponible")
)

// conductorEnvelope mirrors the microservicio response:
// {success:true, data:{dni, nombre, apellidos, ...}}.
type conductorEnvelope struct {
	Success bool               `json:"success"`
	Data    *dto.ConductorData `json:"data"`
}

// MicroservicioClient talks to a single empresa's conductor microservice.
// It is stateless: api_url/api_key are resolved per call by the service layer
// because each empresa hosts its own endpoint.
type MicroservicioClient struct {
	httpClient *http.Client
}

func NewMicroservicioClient() *MicroservicioClient {
	// Timeouts are enforced per request via context, not on the client,
	// because lookup and health probes use different deadlines.
	return &MicroservicioClient{httpClient: &http.Client{}}
}

// ConsultarConductor issues GET {apiURL}/api/conductor?dni=... with the
// empresa's API key. 404 → ErrConductorNotFound; success without a usable
// payload → ErrConductorNotFound; anything else non-2xx or a transport
// failure → ErrMicroservicioUnreachable.
func (c *MicroservicioClient) ConsultarConductor(ctx context.Context, apiURL, apiKey, dni string) (*dto.ConductorData, error) {
	ctx, cancel := context.WithTimeout(ctx, consultaTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/conductor?dni=%s", apiURL, url.QueryEscape(dni))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("microservicio: create request: %w", err)
	}
	req.Header.Set(apiKeyHeaderName, apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicroservicioUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrConductorNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrMicroservicioUnreachable, resp.StatusCode)
	}

	var envelope conductorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMicroservicioUnreachable, err)
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, ErrConductorNotFound
	}
	return envelope.Data, nil
}

// VerificarConexion probes GET {apiURL}/health. It always returns a
// structured result — transport errors are folded into Available=false.
func (c *MicroservicioClient) VerificarConexion(ctx context.Context, apiURL string) dto.ConexionResponse {
	ctx, cancel := context.WithTimeout(ctx, conexionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/health", nil)
	if err != nil {
		return dto.ConexionResponse{Available: false, Detail: fmt.Sprintf("peticion invalida: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dto.ConexionResponse{Available: false, Detail: fmt.Sprintf("no se pudo contactar con el microservicio: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dto.ConexionResponse{Available: false, Detail: fmt.Sprintf("el microservicio respondio %d", resp.StatusCode)}
	}
	return dto.ConexionResponse{Available: true, Detail: "Microservicio disponible"}
}

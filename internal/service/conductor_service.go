package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/infra"
	"github.com/Disi3664/sistema-multas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ConductorCacheTTL memoizes conductor lookups per (empresa, dni) pair.
const ConductorCacheTTL = time.Hour

// Cache is the fail-soft cache contract the conductor service depends on.
// Satisfied by infra.Cache; tests use an in-memory fake.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPattern(ctx context.Context, pattern string)
}

// MicroservicioAPI is the transport contract to an empresa's conductor
// microservice. Satisfied by infra.MicroservicioClient.
type MicroservicioAPI interface {
	ConsultarConductor(ctx context.Context, apiURL, apiKey, dni string) (*dto.ConductorData, error)
	VerificarConexion(ctx context.Context, apiURL string) dto.ConexionResponse
}

type ConductorService interface {
	// ConsultarConductor resolves a conductor's identity via the empresa's
	// microservice, cache-first. Errors: ErrConductorNoEncontrado (terminal,
	// valid outcome), ErrEmpresaSinAPI (terminal misconfiguration),
	// ErrMicroservicioNoDisponible (transient).
	ConsultarConductor(ctx context.Context, empresaID uuid.UUID, dni string) (*dto.ConductorData, error)
	// VerificarConexion probes the empresa's health endpoint, bypassing the
	// cache. Only fails when the empresa itself is unknown.
	VerificarConexion(ctx context.Context, empresaID uuid.UUID) (*dto.ConexionResponse, error)
}

type conductorService struct {
	empresaRepo repository.EmpresaRepository
	client      MicroservicioAPI
	cache       Cache
	ttl         time.Duration
}

// NewConductorService wires the lookup pipeline. ttl <= 0 falls back to
// ConductorCacheTTL.
func NewConductorService(empresaRepo repository.EmpresaRepository, client MicroservicioAPI, cache Cache, ttl time.Duration) ConductorService {
	if ttl <= 0 {
		ttl = ConductorCacheTTL
	}
	return &conductorService{empresaRepo: empresaRepo, client: client, cache: cache, ttl: ttl}
}

// ConductorCacheKey builds the memoization key: conductor:{empresaId}:{dni}.
func ConductorCacheKey(empresaID uuid.UUID, dni string) string {
	return fmt.Sprintf("conductor:%s:%s", empresaID, dni)
}

func (s *conductorService) ConsultarConductor(ctx context.Context, empresaID uuid.UUID, dni string) (*dto.ConductorData, error) {
	key := ConductorCacheKey(empresaID, dni)

	var cached dto.ConductorData
	if s.cache.Get(ctx, key, &cached) {
		log.Debug().Str("empresa_id", empresaID.String()).Str("dni", dni).Msg("conductor obtenido de cache")
		return &cached, nil
	}

	empresa, err := s.empresaRepo.FindByID(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("%w: empresa %s", ErrEmpresaSinAPI, empresaID)
	}
	if !empresa.Activo || empresa.APIURL == nil || empresa.APIKey == nil || *empresa.APIURL == "" || *empresa.APIKey == "" {
		return nil, ErrEmpresaSinAPI
	}

	log.Info().
		Str("empresa_id", empresaID.String()).
		Str("dni", dni).
		Msg("consultando microservicio de empresa")

	conductor, err := s.client.ConsultarConductor(ctx, *empresa.APIURL, *empresa.APIKey, dni)
	if err != nil {
		switch {
		case errors.Is(err, infra.ErrConductorNotFound):
			return nil, ErrConductorNoEncontrado
		default:
			log.Warn().Err(err).Str("empresa_id", empresaID.String()).Msg("microservicio no disponible")
			return nil, fmt.Errorf("%w: %v", ErrMicroservicioNoDisponible, err)
		}
	}

	s.cache.Set(ctx, key, conductor, s.ttl)
	return conductor, nil
}

func (s *conductorService) VerificarConexion(ctx context.Context, empresaID uuid.UUID) (*dto.ConexionResponse, error) {
	empresa, err := s.empresaRepo.FindByID(ctx, empresaID)
	if err != nil {
		return nil, ErrEmpresaNoEncontrada
	}
	if empresa.APIURL == nil || *empresa.APIURL == "" {
		return &dto.ConexionResponse{Available: false, Detail: "empresa sin api_url configurada"}, nil
	}
	resp := s.client.VerificarConexion(ctx, *empresa.APIURL)
	return &resp, nil
}

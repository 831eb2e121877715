package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/model"
	"github.com/Disi3664/sistema-multas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EmpresaService interface {
	CrearEmpresa(ctx context.Context, req dto.CrearEmpresaRequest) (*dto.EmpresaResponse, error)
	ObtenerEmpresa(ctx context.Context, id uuid.UUID) (*dto.EmpresaResponse, error)
	ListarEmpresas(ctx context.Context, activo *bool) ([]dto.EmpresaResponse, error)
	// ActualizarEmpresa applies a partial update and invalidates every cached
	// conductor entry of the empresa, since api_url/api_key may have changed.
	ActualizarEmpresa(ctx context.Context, id uuid.UUID, req dto.ActualizarEmpresaRequest) (*dto.EmpresaResponse, error)
	VerificarConexion(ctx context.Context, id uuid.UUID) (*dto.ConexionResponse, error)
	// Fleet management: the vehiculos table maps plates to conductor DNIs,
	// which is what drives multa assignment and identification.
	CrearVehiculo(ctx context.Context, empresaID uuid.UUID, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error)
	ListarVehiculos(ctx context.Context, empresaID uuid.UUID) ([]dto.VehiculoResponse, error)
}

type empresaService struct {
	repo         repository.EmpresaRepository
	vehiculoRepo repository.VehiculoRepository
	conductor    ConductorService
	cache        Cache
}

func NewEmpresaService(
	repo repository.EmpresaRepository,
	vehiculoRepo repository.VehiculoRepository,
	conductor ConductorService,
	cache Cache,
) EmpresaService {
	return &empresaService{repo: repo, vehiculoRepo: vehiculoRepo, conductor: conductor, cache: cache}
}

func (s *empresaService) CrearEmpresa(ctx context.Context, req dto.CrearEmpresaRequest) (*dto.EmpresaResponse, error) {
	empresa := model.Empresa{
		Nombre:          req.Nombre,
		CIF:             strings.ToUpper(req.CIF),
		Email:           req.Email,
		Telefono:        req.Telefono,
		Direccion:       req.Direccion,
		APIURL:          req.APIURL,
		APIKey:          req.APIKey,
		ServicioRecurso: req.ServicioRecurso,
		Activo:          true,
	}
	if req.PrecioGestion != nil {
		empresa.PrecioGestion = *req.PrecioGestion
	}
	if req.PrecioRecurso != nil {
		empresa.PrecioRecurso = *req.PrecioRecurso
	}

	if err := s.repo.Create(ctx, &empresa); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCIFDuplicado
		}
		return nil, err
	}

	log.Info().Str("empresa_id", empresa.ID.String()).Str("cif", empresa.CIF).Msg("empresa creada")
	return EmpresaToResponse(&empresa), nil
}

func (s *empresaService) ObtenerEmpresa(ctx context.Context, id uuid.UUID) (*dto.EmpresaResponse, error) {
	empresa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEmpresaNoEncontrada
	}
	return EmpresaToResponse(empresa), nil
}

func (s *empresaService) ListarEmpresas(ctx context.Context, activo *bool) ([]dto.EmpresaResponse, error) {
	empresas, err := s.repo.List(ctx, activo)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmpresaResponse, 0, len(empresas))
	for i := range empresas {
		out = append(out, *EmpresaToResponse(&empresas[i]))
	}
	return out, nil
}

func (s *empresaService) ActualizarEmpresa(ctx context.Context, id uuid.UUID, req dto.ActualizarEmpresaRequest) (*dto.EmpresaResponse, error) {
	empresa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrEmpresaNoEncontrada
	}

	if req.Nombre != nil {
		empresa.Nombre = *req.Nombre
	}
	if req.Email != nil {
		empresa.Email = *req.Email
	}
	if req.Telefono != nil {
		empresa.Telefono = req.Telefono
	}
	if req.Direccion != nil {
		empresa.Direccion = req.Direccion
	}
	if req.APIURL != nil {
		empresa.APIURL = req.APIURL
	}
	if req.APIKey != nil {
		empresa.APIKey = req.APIKey
	}
	if req.ServicioRecurso != nil {
		empresa.ServicioRecurso = *req.ServicioRecurso
	}
	if req.PrecioGestion != nil {
		empresa.PrecioGestion = *req.PrecioGestion
	}
	if req.PrecioRecurso != nil {
		empresa.PrecioRecurso = *req.PrecioRecurso
	}
	if req.Activo != nil {
		empresa.Activo = *req.Activo
	}

	if err := s.repo.Update(ctx, empresa); err != nil {
		return nil, err
	}

	// Cached conductor entries may have been resolved against credentials
	// that no longer apply.
	s.cache.DeleteByPattern(ctx, fmt.Sprintf("conductor:%s:*", empresa.ID))

	log.Info().Str("empresa_id", empresa.ID.String()).Msg("empresa actualizada, cache de conductores invalidada")
	return EmpresaToResponse(empresa), nil
}

func (s *empresaService) VerificarConexion(ctx context.Context, id uuid.UUID) (*dto.ConexionResponse, error) {
	return s.conductor.VerificarConexion(ctx, id)
}

func (s *empresaService) CrearVehiculo(ctx context.Context, empresaID uuid.UUID, req dto.CrearVehiculoRequest) (*dto.VehiculoResponse, error) {
	if _, err := s.repo.FindByID(ctx, empresaID); err != nil {
		return nil, ErrEmpresaNoEncontrada
	}
	vehiculo := model.Vehiculo{
		EmpresaID:    empresaID,
		Matricula:    strings.ToUpper(req.Matricula),
		DNIConductor: req.DNIConductor,
		Marca:        req.Marca,
		Modelo:       req.Modelo,
		Activo:       true,
	}
	if err := s.vehiculoRepo.Create(ctx, &vehiculo); err != nil {
		return nil, err
	}
	log.Info().
		Str("empresa_id", empresaID.String()).
		Str("matricula", vehiculo.Matricula).
		Msg("vehiculo registrado")
	return vehiculoToResponse(&vehiculo), nil
}

func (s *empresaService) ListarVehiculos(ctx context.Context, empresaID uuid.UUID) ([]dto.VehiculoResponse, error) {
	if _, err := s.repo.FindByID(ctx, empresaID); err != nil {
		return nil, ErrEmpresaNoEncontrada
	}
	vehiculos, err := s.vehiculoRepo.ListByEmpresa(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VehiculoResponse, 0, len(vehiculos))
	for i := range vehiculos {
		out = append(out, *vehiculoToResponse(&vehiculos[i]))
	}
	return out, nil
}

func vehiculoToResponse(v *model.Vehiculo) *dto.VehiculoResponse {
	return &dto.VehiculoResponse{
		ID:           v.ID.String(),
		EmpresaID:    v.EmpresaID.String(),
		Matricula:    v.Matricula,
		DNIConductor: v.DNIConductor,
		Marca:        v.Marca,
		Modelo:       v.Modelo,
		Activo:       v.Activo,
	}
}

// isUniqueViolation detects a Postgres duplicate-key error without pulling
// in the pgconn error types at this layer.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

func EmpresaToResponse(e *model.Empresa) *dto.EmpresaResponse {
	return &dto.EmpresaResponse{
		ID:              e.ID.String(),
		Nombre:          e.Nombre,
		CIF:             e.CIF,
		Email:           e.Email,
		Telefono:        e.Telefono,
		Direccion:       e.Direccion,
		APIURL:          e.APIURL,
		ServicioRecurso: e.ServicioRecurso,
		PrecioGestion:   e.PrecioGestion,
		PrecioRecurso:   e.PrecioRecurso,
		Activo:          e.Activo,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
}

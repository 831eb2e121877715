package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/model"
	"github.com/Disi3664/sistema-multas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// IdentificacionDispatcher enqueues background identification jobs.
// Satisfied by worker.Dispatcher; nil-able in unit tests.
type IdentificacionDispatcher interface {
	EnqueueIdentificacion(ctx context.Context, multaID uuid.UUID) error
}

type MultaService interface {
	// CrearMulta persists a new multa inside a single transaction (empresa
	// resolution + fee snapshot + insert) and, after commit, schedules the
	// asynchronous conductor identification. Identification never affects
	// the creation result.
	CrearMulta(ctx context.Context, req dto.CrearMultaRequest) (*dto.MultaResponse, error)
	ObtenerMulta(ctx context.Context, id uuid.UUID) (*dto.MultaResponse, error)
	ListarMultas(ctx context.Context, filter dto.MultaFilter) (*dto.MultaListResponse, error)
	ActualizarEstado(ctx context.Context, id uuid.UUID, req dto.ActualizarEstadoRequest) (*dto.MultaResponse, error)
	ComunicarOrganismo(ctx context.Context, id uuid.UUID) (*dto.MultaResponse, error)
	ObtenerEstadisticas(ctx context.Context, filter dto.EstadisticasFilter) (*dto.EstadisticasResponse, error)
}

type multaService struct {
	repo        repository.MultaRepository
	empresaRepo repository.EmpresaRepository
	dispatcher  IdentificacionDispatcher
}

func NewMultaService(
	repo repository.MultaRepository,
	empresaRepo repository.EmpresaRepository,
	dispatcher IdentificacionDispatcher,
) MultaService {
	return &multaService{repo: repo, empresaRepo: empresaRepo, dispatcher: dispatcher}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *multaService) CrearMulta(ctx context.Context, req dto.CrearMultaRequest) (*dto.MultaResponse, error) {
	fechaInfraccion, err := time.Parse("2006-01-02", req.FechaInfraccion)
	if err != nil {
		return nil, fmt.Errorf("fecha_infraccion invalida: %w", err)
	}

	// Ambiguous plates resolve deterministically (earliest-registered
	// empresa); leave a trace for the operator either way.
	if n, err := s.empresaRepo.CountByMatricula(ctx, req.Matricula); err == nil && n > 1 {
		log.Warn().
			Str("matricula", req.Matricula).
			Int64("empresas", n).
			Msg("matricula registrada en varias empresas, se asigna la mas antigua")
	}

	var multa model.Multa
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// 1. Resolve owning empresa by plate — the fee snapshot and the
		// insert must observe the same empresa row.
		empresa, err := s.empresaRepo.FindByMatricula(ctx, tx, req.Matricula)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrEmpresaNoEncontrada, req.Matricula)
			}
			return err
		}

		// 2. Duplicate expediente check inside the same transaction.
		if _, err := s.repo.FindByExpediente(ctx, req.NumeroExpediente); err == nil {
			return ErrExpedienteDuplicado
		}

		// 3. Insert with the fee snapshotted from the empresa's current
		// pricing — later pricing changes never touch this multa.
		multa = model.Multa{
			EmpresaID:        empresa.ID,
			NumeroExpediente: req.NumeroExpediente,
			Matricula:        req.Matricula,
			FechaInfraccion:  fechaInfraccion,
			OrganismoEmisor:  req.OrganismoEmisor,
			ImporteMulta:     req.ImporteMulta,
			ImporteGestion:   empresa.PrecioGestion,
			Estado:           model.EstadoPendienteIdentificacion,
		}
		// The pre-check cannot see uncommitted concurrent inserts; the UNIQUE
		// constraint on numero_expediente is the real guarantee.
		if err := s.repo.Create(ctx, tx, &multa); err != nil {
			if isUniqueViolation(err) {
				return ErrExpedienteDuplicado
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("multa_id", multa.ID.String()).
		Str("expediente", multa.NumeroExpediente).
		Str("empresa_id", multa.EmpresaID.String()).
		Msg("multa creada, iniciando identificacion de conductor")

	// 4. Async identification job — best-effort: an enqueue failure is
	// logged and left for the retry sweep, never surfaced to the caller.
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueIdentificacion(ctx, multa.ID); err != nil {
			log.Error().Err(err).Str("multa_id", multa.ID.String()).Msg("no se pudo encolar la identificacion")
		}
	}

	return MultaToResponse(&multa), nil
}

func (s *multaService) ObtenerMulta(ctx context.Context, id uuid.UUID) (*dto.MultaResponse, error) {
	multa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrMultaNoEncontrada
	}
	return MultaToResponse(multa), nil
}

func (s *multaService) ListarMultas(ctx context.Context, filter dto.MultaFilter) (*dto.MultaListResponse, error) {
	if filter.Pagina < 1 {
		filter.Pagina = 1
	}
	if filter.Limite < 1 {
		filter.Limite = 20
	}
	multas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MultaResponse, 0, len(multas))
	for i := range multas {
		items = append(items, *MultaToResponse(&multas[i]))
	}
	return &dto.MultaListResponse{
		Data:   items,
		Total:  total,
		Pagina: filter.Pagina,
		Limite: filter.Limite,
	}, nil
}

func (s *multaService) ActualizarEstado(ctx context.Context, id uuid.UUID, req dto.ActualizarEstadoRequest) (*dto.MultaResponse, error) {
	if !model.EstadoActualizable(req.Estado) {
		return nil, fmt.Errorf("%w: %q", ErrEstadoInvalido, req.Estado)
	}
	if err := s.repo.UpdateEstado(ctx, id, req.Estado, req.Observaciones); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMultaNoEncontrada
		}
		return nil, err
	}
	multa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrMultaNoEncontrada
	}
	return MultaToResponse(multa), nil
}

func (s *multaService) ComunicarOrganismo(ctx context.Context, id uuid.UUID) (*dto.MultaResponse, error) {
	multa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrMultaNoEncontrada
	}
	if multa.Estado != model.EstadoConductorIdentificado {
		return nil, fmt.Errorf("%w: la multa debe tener conductor identificado, estado actual %q",
			ErrEstadoInvalido, multa.Estado)
	}

	now := time.Now()
	multa.FechaComunicacionOrganismo = &now
	if err := s.repo.Update(ctx, multa); err != nil {
		return nil, err
	}

	log.Info().
		Str("multa_id", multa.ID.String()).
		Str("organismo", multa.OrganismoEmisor).
		Msg("datos del conductor comunicados al organismo emisor")

	return MultaToResponse(multa), nil
}

func (s *multaService) ObtenerEstadisticas(ctx context.Context, filter dto.EstadisticasFilter) (*dto.EstadisticasResponse, error) {
	return s.repo.Estadisticas(ctx, filter)
}

// ── helpers ──────────────────────────────────────────────────────────────────

// MultaToResponse maps a model to its API shape. Exported because the
// factura service embeds multas in invoice detail responses.
func MultaToResponse(m *model.Multa) *dto.MultaResponse {
	resp := &dto.MultaResponse{
		ID:                 m.ID.String(),
		EmpresaID:          m.EmpresaID.String(),
		NumeroExpediente:   m.NumeroExpediente,
		Matricula:          m.Matricula,
		FechaInfraccion:    m.FechaInfraccion.Format("2006-01-02"),
		OrganismoEmisor:    m.OrganismoEmisor,
		ImporteMulta:       m.ImporteMulta,
		ImporteGestion:     m.ImporteGestion,
		ConductorDNI:       m.ConductorDNI,
		ConductorNombre:    m.ConductorNombre,
		ConductorEmail:     m.ConductorEmail,
		ConductorTelefono:  m.ConductorTelefono,
		ConductorDireccion: m.ConductorDireccion,
		Estado:             m.Estado,
		Observaciones:      m.Observaciones,
		Facturada:          m.Facturada,
		CreatedAt:          m.CreatedAt.Format(time.RFC3339),
	}
	if m.FechaComunicacionOrganismo != nil {
		s := m.FechaComunicacionOrganismo.Format("2006-01-02")
		resp.FechaComunicacionOrganismo = &s
	}
	return resp
}

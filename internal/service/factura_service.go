package service

import (
	"context"
	"fmt"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/model"
	"github.com/Disi3664/sistema-multas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type FacturaService interface {
	ListarFacturas(ctx context.Context, filter dto.FacturaFilter) ([]dto.FacturaResponse, error)
	// ObtenerFactura returns the factura with the multas it covers.
	ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error)
	// GenerarFacturas runs the monthly aggregation and returns the facturas
	// produced for that period.
	GenerarFacturas(ctx context.Context, req dto.GenerarFacturasRequest) ([]dto.FacturaResponse, error)
	ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.FacturaResponse, error)
}

type facturaService struct {
	repo      repository.FacturaRepository
	multaRepo repository.MultaRepository
}

func NewFacturaService(repo repository.FacturaRepository, multaRepo repository.MultaRepository) FacturaService {
	return &facturaService{repo: repo, multaRepo: multaRepo}
}

func (s *facturaService) ListarFacturas(ctx context.Context, filter dto.FacturaFilter) ([]dto.FacturaResponse, error) {
	facturas, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FacturaResponse, 0, len(facturas))
	for i := range facturas {
		out = append(out, *facturaToResponse(&facturas[i]))
	}
	return out, nil
}

func (s *facturaService) ObtenerFactura(ctx context.Context, id uuid.UUID) (*dto.FacturaResponse, error) {
	factura, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrFacturaNoEncontrada
	}
	resp := facturaToResponse(factura)

	multas, err := s.multaRepo.ListFacturables(ctx, factura.EmpresaID, factura.PeriodoInicio, factura.PeriodoFin)
	if err != nil {
		return nil, err
	}
	resp.Multas = make([]dto.MultaResponse, 0, len(multas))
	for i := range multas {
		resp.Multas = append(resp.Multas, *MultaToResponse(&multas[i]))
	}
	return resp, nil
}

func (s *facturaService) GenerarFacturas(ctx context.Context, req dto.GenerarFacturasRequest) ([]dto.FacturaResponse, error) {
	log.Info().Int("mes", req.Mes).Int("anio", req.Anio).Msg("generando facturas del mes")

	if err := s.repo.GenerarMes(ctx, req.Mes, req.Anio); err != nil {
		return nil, fmt.Errorf("generar_facturas_mes(%d, %d): %w", req.Mes, req.Anio, err)
	}

	facturas, err := s.repo.ListByPeriodo(ctx, req.Mes, req.Anio)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FacturaResponse, 0, len(facturas))
	for i := range facturas {
		out = append(out, *facturaToResponse(&facturas[i]))
	}

	log.Info().Int("mes", req.Mes).Int("anio", req.Anio).Int("facturas", len(out)).Msg("facturacion mensual completada")
	return out, nil
}

func (s *facturaService) ActualizarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.FacturaResponse, error) {
	if !model.EstadoFacturaValido(estado) {
		return nil, fmt.Errorf("%w: %q", ErrEstadoInvalido, estado)
	}
	if err := s.repo.UpdateEstado(ctx, id, estado); err != nil {
		return nil, ErrFacturaNoEncontrada
	}
	factura, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrFacturaNoEncontrada
	}
	return facturaToResponse(factura), nil
}

func facturaToResponse(f *model.Factura) *dto.FacturaResponse {
	resp := &dto.FacturaResponse{
		ID:            f.ID.String(),
		EmpresaID:     f.EmpresaID.String(),
		NumeroFactura: f.NumeroFactura,
		FechaEmision:  f.FechaEmision.Format("2006-01-02"),
		PeriodoInicio: f.PeriodoInicio.Format("2006-01-02"),
		PeriodoFin:    f.PeriodoFin.Format("2006-01-02"),
		BaseImponible: f.BaseImponible,
		IVA:           f.IVA,
		Total:         f.Total,
		Estado:        f.Estado,
	}
	if f.Empresa != nil {
		resp.EmpresaNombre = f.Empresa.Nombre
		resp.EmpresaCIF = f.Empresa.CIF
	}
	return resp
}

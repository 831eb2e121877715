package service

// Covers the multa lifecycle: creation against the fleet registry, the
// importe_gestion snapshot, duplicate expedientes, manual estado updates and
// the comunicacion gate.

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/model"
	"github.com/Disi3664/sistema-multas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory EmpresaRepository stub ─────────────────────────────────────────

type stubEmpresaRepo struct {
	empresas    map[uuid.UUID]*model.Empresa
	byMatricula map[string][]uuid.UUID
}

func newStubEmpresaRepo() *stubEmpresaRepo {
	return &stubEmpresaRepo{
		empresas:    make(map[uuid.UUID]*model.Empresa),
		byMatricula: make(map[string][]uuid.UUID),
	}
}

func (r *stubEmpresaRepo) addEmpresa(e *model.Empresa, matriculas ...string) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.empresas[e.ID] = e
	for _, m := range matriculas {
		r.byMatricula[m] = append(r.byMatricula[m], e.ID)
	}
}

func (r *stubEmpresaRepo) Create(_ context.Context, e *model.Empresa) error {
	r.addEmpresa(e)
	return nil
}

func (r *stubEmpresaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Empresa, error) {
	e, ok := r.empresas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubEmpresaRepo) FindByMatricula(_ context.Context, _ *gorm.DB, matricula string) (*model.Empresa, error) {
	ids, ok := r.byMatricula[matricula]
	if !ok || len(ids) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.empresas[ids[0]], nil
}

func (r *stubEmpresaRepo) CountByMatricula(_ context.Context, matricula string) (int64, error) {
	return int64(len(r.byMatricula[matricula])), nil
}

func (r *stubEmpresaRepo) List(_ context.Context, _ *bool) ([]model.Empresa, error) {
	var out []model.Empresa
	for _, e := range r.empresas {
		out = append(out, *e)
	}
	return out, nil
}

func (r *stubEmpresaRepo) Update(_ context.Context, e *model.Empresa) error {
	r.empresas[e.ID] = e
	return nil
}

func (r *stubEmpresaRepo) DB() *gorm.DB { return nil }

var _ repository.EmpresaRepository = (*stubEmpresaRepo)(nil)

// ── In-memory MultaRepository stub ───────────────────────────────────────────

type stubMultaRepo struct {
	multas       map[uuid.UUID]*model.Multa
	byExpediente map[string]uuid.UUID
	dniPorMulta  map[uuid.UUID]*string
	createErr    error
}

func newStubMultaRepo() *stubMultaRepo {
	return &stubMultaRepo{
		multas:       make(map[uuid.UUID]*model.Multa),
		byExpediente: make(map[string]uuid.UUID),
		dniPorMulta:  make(map[uuid.UUID]*string),
	}
}

func (r *stubMultaRepo) Create(_ context.Context, _ *gorm.DB, m *model.Multa) error {
	if r.createErr != nil {
		return r.createErr
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	cloned := *m
	r.multas[m.ID] = &cloned
	r.byExpediente[m.NumeroExpediente] = m.ID
	return nil
}

func (r *stubMultaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Multa, error) {
	m, ok := r.multas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *stubMultaRepo) FindByExpediente(_ context.Context, exp string) (*model.Multa, error) {
	id, ok := r.byExpediente[exp]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.multas[id], nil
}

func (r *stubMultaRepo) FindForIdentificacion(ctx context.Context, id uuid.UUID) (*repository.IdentificacionData, error) {
	m, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &repository.IdentificacionData{Multa: m, DNIConductor: r.dniPorMulta[id]}, nil
}

func (r *stubMultaRepo) Update(_ context.Context, m *model.Multa) error {
	cloned := *m
	r.multas[m.ID] = &cloned
	return nil
}

func (r *stubMultaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string, observaciones *string) error {
	m, ok := r.multas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Estado = estado
	if observaciones != nil {
		m.Observaciones = observaciones
	}
	return nil
}

func (r *stubMultaRepo) List(_ context.Context, _ dto.MultaFilter) ([]model.Multa, int64, error) {
	var out []model.Multa
	for _, m := range r.multas {
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMultaRepo) ListFacturables(_ context.Context, empresaID uuid.UUID, inicio, fin time.Time) ([]model.Multa, error) {
	var out []model.Multa
	for _, m := range r.multas {
		if m.EmpresaID == empresaID && m.Facturada &&
			m.FechaComunicacionOrganismo != nil &&
			!m.FechaComunicacionOrganismo.Before(inicio) &&
			!m.FechaComunicacionOrganismo.After(fin) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMultaRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.Multa, error) {
	var out []model.Multa
	for _, m := range r.multas {
		if m.Estado == model.EstadoPendienteIdentificacion &&
			m.NextRetryAt != nil && !m.NextRetryAt.After(now) {
			out = append(out, *m)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubMultaRepo) Estadisticas(_ context.Context, _ dto.EstadisticasFilter) (*dto.EstadisticasResponse, error) {
	stats := &dto.EstadisticasResponse{PorEstado: make(map[string]int64)}
	for _, m := range r.multas {
		stats.TotalMultas++
		stats.PorEstado[m.Estado]++
		stats.ImporteMultas = stats.ImporteMultas.Add(m.ImporteMulta)
		stats.ImporteGestion = stats.ImporteGestion.Add(m.ImporteGestion)
	}
	return stats, nil
}

func (r *stubMultaRepo) DB() *gorm.DB { return nil }

var _ repository.MultaRepository = (*stubMultaRepo)(nil)

// ── Dispatcher stub ──────────────────────────────────────────────────────────

type stubDispatcher struct {
	enqueued []uuid.UUID
	fail     error
}

func (d *stubDispatcher) EnqueueIdentificacion(_ context.Context, multaID uuid.UUID) error {
	if d.fail != nil {
		return d.fail
	}
	d.enqueued = append(d.enqueued, multaID)
	return nil
}

var _ IdentificacionDispatcher = (*stubDispatcher)(nil)

// ── Tests ────────────────────────────────────────────────────────────────────

func crearMultaRequest() dto.CrearMultaRequest {
	return dto.CrearMultaRequest{
		NumeroExpediente: "EXP-2026-0001",
		Matricula:        "1234ABC",
		FechaInfraccion:  "2026-08-01",
		OrganismoEmisor:  "Ayuntamiento de Madrid",
		ImporteMulta:     decimal.NewFromInt(200),
	}
}

func TestCrearMulta_MatriculaDesconocida(t *testing.T) {
	empresaRepo := newStubEmpresaRepo()
	multaRepo := newStubMultaRepo()
	dispatcher := &stubDispatcher{}
	svc := NewMultaService(multaRepo, empresaRepo, dispatcher)

	_, err := svc.CrearMulta(context.Background(), crearMultaRequest())

	require.ErrorIs(t, err, ErrEmpresaNoEncontrada)
	assert.Empty(t, multaRepo.multas, "nothing should be persisted")
	assert.Empty(t, dispatcher.enqueued, "no job should be enqueued")
}

func TestCrearMulta_SnapshotDePrecioGestion(t *testing.T) {
	empresaRepo := newStubEmpresaRepo()
	empresa := &model.Empresa{
		Nombre:        "Flotas Norte SL",
		PrecioGestion: decimal.NewFromFloat(15.00),
		Activo:        true,
	}
	empresaRepo.addEmpresa(empresa, "1234ABC")

	multaRepo := newStubMultaRepo()
	dispatcher := &stubDispatcher{}
	svc := NewMultaService(multaRepo, empresaRepo, dispatcher)

	resp, err := svc.CrearMulta(context.Background(), crearMultaRequest())
	require.NoError(t, err)

	assert.Equal(t, model.EstadoPendienteIdentificacion, resp.Estado)
	assert.True(t, resp.ImporteGestion.Equal(decimal.NewFromFloat(15.00)))
	require.Len(t, dispatcher.enqueued, 1)

	// A later price change must not touch already-created multas.
	empresa.PrecioGestion = decimal.NewFromFloat(25.00)

	stored, err := svc.ObtenerMulta(context.Background(), dispatcher.enqueued[0])
	require.NoError(t, err)
	assert.True(t, stored.ImporteGestion.Equal(decimal.NewFromFloat(15.00)))
}

func TestCrearMulta_ExpedienteDuplicado(t *testing.T) {
	empresaRepo := newStubEmpresaRepo()
	empresaRepo.addEmpresa(&model.Empresa{PrecioGestion: decimal.NewFromInt(15), Activo: true}, "1234ABC")

	multaRepo := newStubMultaRepo()
	svc := NewMultaService(multaRepo, empresaRepo, &stubDispatcher{})

	_, err := svc.CrearMulta(context.Background(), crearMultaRequest())
	require.NoError(t, err)

	_, err = svc.CrearMulta(context.Background(), crearMultaRequest())
	require.ErrorIs(t, err, ErrExpedienteDuplicado)
	assert.Len(t, multaRepo.multas, 1)
}

func TestCrearMulta_ExpedienteDuplicadoConcurrente(t *testing.T) {
	// The pre-check passes (no committed duplicate yet) but the insert trips
	// the UNIQUE constraint — the caller still sees the 409 sentinel, not a
	// raw DB error.
	empresaRepo := newStubEmpresaRepo()
	empresaRepo.addEmpresa(&model.Empresa{PrecioGestion: decimal.NewFromInt(15), Activo: true}, "1234ABC")

	multaRepo := newStubMultaRepo()
	multaRepo.createErr = errors.New(`ERROR: duplicate key value violates unique constraint "multas_numero_expediente_key" (SQLSTATE 23505)`)
	svc := NewMultaService(multaRepo, empresaRepo, &stubDispatcher{})

	_, err := svc.CrearMulta(context.Background(), crearMultaRequest())
	require.ErrorIs(t, err, ErrExpedienteDuplicado)
	assert.Empty(t, multaRepo.multas)
}

func TestCrearMulta_FalloDeEncoladoNoRompeLaCreacion(t *testing.T) {
	empresaRepo := newStubEmpresaRepo()
	empresaRepo.addEmpresa(&model.Empresa{PrecioGestion: decimal.NewFromInt(15), Activo: true}, "1234ABC")

	multaRepo := newStubMultaRepo()
	dispatcher := &stubDispatcher{fail: assert.AnError}
	svc := NewMultaService(multaRepo, empresaRepo, dispatcher)

	resp, err := svc.CrearMulta(context.Background(), crearMultaRequest())

	require.NoError(t, err, "enqueue failures must not surface to the caller")
	assert.Equal(t, model.EstadoPendienteIdentificacion, resp.Estado)
	assert.Len(t, multaRepo.multas, 1)
}

func TestActualizarEstado(t *testing.T) {
	empresaRepo := newStubEmpresaRepo()
	empresaRepo.addEmpresa(&model.Empresa{PrecioGestion: decimal.NewFromInt(15), Activo: true}, "1234ABC")

	multaRepo := newStubMultaRepo()
	dispatcher := &stubDispatcher{}
	svc := NewMultaService(multaRepo, empresaRepo, dispatcher)

	created, err := svc.CrearMulta(context.Background(), crearMultaRequest())
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	t.Run("estado fuera del enum", func(t *testing.T) {
		_, err := svc.ActualizarEstado(context.Background(), id, dto.ActualizarEstadoRequest{Estado: "en_tramite"})
		require.ErrorIs(t, err, ErrEstadoInvalido)
		assert.Equal(t, model.EstadoPendienteIdentificacion, multaRepo.multas[id].Estado, "estado must be unchanged")
	})

	t.Run("pendiente_identificacion es solo de creacion", func(t *testing.T) {
		_, err := svc.ActualizarEstado(context.Background(), id, dto.ActualizarEstadoRequest{Estado: model.EstadoPendienteIdentificacion})
		require.ErrorIs(t, err, ErrEstadoInvalido)
	})

	t.Run("actualizacion valida con observaciones", func(t *testing.T) {
		obs := "pagada por el conductor"
		resp, err := svc.ActualizarEstado(context.Background(), id, dto.ActualizarEstadoRequest{Estado: model.EstadoPagada, Observaciones: &obs})
		require.NoError(t, err)
		assert.Equal(t, model.EstadoPagada, resp.Estado)
		require.NotNil(t, resp.Observaciones)
		assert.Equal(t, obs, *resp.Observaciones)
	})

	t.Run("multa inexistente", func(t *testing.T) {
		_, err := svc.ActualizarEstado(context.Background(), uuid.New(), dto.ActualizarEstadoRequest{Estado: model.EstadoPagada})
		require.ErrorIs(t, err, ErrMultaNoEncontrada)
	})
}

func TestComunicarOrganismo(t *testing.T) {
	empresaRepo := newStubEmpresaRepo()
	empresaRepo.addEmpresa(&model.Empresa{PrecioGestion: decimal.NewFromInt(15), Activo: true}, "1234ABC")

	multaRepo := newStubMultaRepo()
	svc := NewMultaService(multaRepo, empresaRepo, &stubDispatcher{})

	created, err := svc.CrearMulta(context.Background(), crearMultaRequest())
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	// Still pendiente_identificacion — the gate must reject it.
	_, err = svc.ComunicarOrganismo(context.Background(), id)
	require.ErrorIs(t, err, ErrEstadoInvalido)
	assert.Nil(t, multaRepo.multas[id].FechaComunicacionOrganismo)

	multaRepo.multas[id].Estado = model.EstadoConductorIdentificado

	resp, err := svc.ComunicarOrganismo(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, resp.FechaComunicacionOrganismo)
	assert.NotNil(t, multaRepo.multas[id].FechaComunicacionOrganismo)
}

func TestListarMultas_PaginacionPorDefecto(t *testing.T) {
	multaRepo := newStubMultaRepo()
	svc := NewMultaService(multaRepo, newStubEmpresaRepo(), &stubDispatcher{})

	resp, err := svc.ListarMultas(context.Background(), dto.MultaFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagina)
	assert.Equal(t, 20, resp.Limite)
}

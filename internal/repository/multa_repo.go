package repository

import (
	"context"
	"time"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IdentificacionData is the join needed by the identificacion worker:
// the multa plus the DNI registered for its plate (nil when the vehiculo
// carries no conductor DNI).
type IdentificacionData struct {
	Multa        *model.Multa
	DNIConductor *string
}

type MultaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, m *model.Multa) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Multa, error)
	FindByExpediente(ctx context.Context, numeroExpediente string) (*model.Multa, error)
	// FindForIdentificacion loads the multa together with the conductor DNI
	// registered for its plate within its empresa.
	FindForIdentificacion(ctx context.Context, id uuid.UUID) (*IdentificacionData, error)
	Update(ctx context.Context, m *model.Multa) error
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string, observaciones *string) error
	List(ctx context.Context, filter dto.MultaFilter) ([]model.Multa, int64, error)
	// ListFacturables implements the invoice eligibility predicate:
	// facturada = true AND fecha_comunicacion_organismo within the period.
	ListFacturables(ctx context.Context, empresaID uuid.UUID, inicio, fin time.Time) ([]model.Multa, error)
	// ListPendingRetries returns multas stuck in pendiente_identificacion
	// whose next_retry_at has elapsed, oldest first.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Multa, error)
	Estadisticas(ctx context.Context, filter dto.EstadisticasFilter) (*dto.EstadisticasResponse, error)
	DB() *gorm.DB
}

type multaRepo struct{ db *gorm.DB }

func NewMultaRepository(db *gorm.DB) MultaRepository { return &multaRepo{db: db} }

func (r *multaRepo) DB() *gorm.DB { return r.db }

func (r *multaRepo) Create(ctx context.Context, tx *gorm.DB, m *model.Multa) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Create(m).Error
}

func (r *multaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Multa, error) {
	var m model.Multa
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	return &m, err
}

func (r *multaRepo) FindByExpediente(ctx context.Context, numeroExpediente string) (*model.Multa, error) {
	var m model.Multa
	err := r.db.WithContext(ctx).Where("numero_expediente = ?", numeroExpediente).First(&m).Error
	return &m, err
}

func (r *multaRepo) FindForIdentificacion(ctx context.Context, id uuid.UUID) (*IdentificacionData, error) {
	var m model.Multa
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}

	// LEFT JOIN semantics: a missing vehiculo row behaves like a vehiculo
	// without DNI — identification fails locally either way.
	var v model.Vehiculo
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND matricula = ?", m.EmpresaID, m.Matricula).
		First(&v).Error
	if err != nil {
		return &IdentificacionData{Multa: &m, DNIConductor: nil}, nil
	}
	return &IdentificacionData{Multa: &m, DNIConductor: v.DNIConductor}, nil
}

func (r *multaRepo) Update(ctx context.Context, m *model.Multa) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *multaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string, observaciones *string) error {
	updates := map[string]interface{}{"estado": estado}
	if observaciones != nil {
		updates["observaciones"] = *observaciones
	}
	res := r.db.WithContext(ctx).Model(&model.Multa{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *multaRepo) List(ctx context.Context, filter dto.MultaFilter) ([]model.Multa, int64, error) {
	var multas []model.Multa
	var total int64
	offset := (filter.Pagina - 1) * filter.Limite

	q := r.db.WithContext(ctx).Model(&model.Multa{})

	if filter.EmpresaID != "" {
		q = q.Where("empresa_id = ?", filter.EmpresaID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Matricula != "" {
		q = q.Where("matricula = ?", filter.Matricula)
	}
	if filter.FechaDesde != "" {
		q = q.Where("fecha_infraccion >= ?", filter.FechaDesde)
	}
	if filter.FechaHasta != "" {
		q = q.Where("fecha_infraccion <= ?", filter.FechaHasta)
	}
	if filter.Facturada != nil {
		q = q.Where("facturada = ?", *filter.Facturada)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("fecha_infraccion DESC, created_at DESC").
		Offset(offset).Limit(filter.Limite).
		Find(&multas).Error

	return multas, total, err
}

func (r *multaRepo) ListFacturables(ctx context.Context, empresaID uuid.UUID, inicio, fin time.Time) ([]model.Multa, error) {
	var multas []model.Multa
	// fin is a DATE boundary; cover the whole last day of the period.
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND facturada = true", empresaID).
		Where("fecha_comunicacion_organismo >= ? AND fecha_comunicacion_organismo < ?", inicio, fin.AddDate(0, 0, 1)).
		Order("fecha_infraccion").
		Find(&multas).Error
	return multas, err
}

func (r *multaRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Multa, error) {
	var multas []model.Multa
	err := r.db.WithContext(ctx).
		Where("estado = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			model.EstadoPendienteIdentificacion, now).
		Order("next_retry_at").
		Limit(limit).
		Find(&multas).Error
	return multas, err
}

func (r *multaRepo) Estadisticas(ctx context.Context, filter dto.EstadisticasFilter) (*dto.EstadisticasResponse, error) {
	base := r.db.WithContext(ctx).Model(&model.Multa{})
	if filter.EmpresaID != "" {
		base = base.Where("empresa_id = ?", filter.EmpresaID)
	}
	if filter.FechaInicio != "" {
		base = base.Where("fecha_infraccion >= ?", filter.FechaInicio)
	}
	if filter.FechaFin != "" {
		base = base.Where("fecha_infraccion <= ?", filter.FechaFin)
	}

	type row struct {
		Estado         string
		Cuenta         int64
		ImporteMultas  decimal.Decimal
		ImporteGestion decimal.Decimal
	}
	var rows []row
	err := base.
		Select("estado, COUNT(*) AS cuenta, COALESCE(SUM(importe_multa),0) AS importe_multas, COALESCE(SUM(importe_gestion),0) AS importe_gestion").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &dto.EstadisticasResponse{
		PorEstado:      make(map[string]int64),
		ImporteMultas:  decimal.Zero,
		ImporteGestion: decimal.Zero,
	}
	for _, r := range rows {
		stats.TotalMultas += r.Cuenta
		stats.PorEstado[r.Estado] = r.Cuenta
		stats.ImporteMultas = stats.ImporteMultas.Add(r.ImporteMultas)
		stats.ImporteGestion = stats.ImporteGestion.Add(r.ImporteGestion)
	}
	return stats, nil
}

package repository

import (
	"context"

	"github.com/Disi3664/sistema-multas/internal/dto"
	"github.com/Disi3664/sistema-multas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FacturaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error)
	List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, error)
	// GenerarMes invokes the SQL aggregation function that creates the
	// month's facturas and marks the covered multas as billed.
	GenerarMes(ctx context.Context, mes, anio int) error
	ListByPeriodo(ctx context.Context, mes, anio int) ([]model.Factura, error)
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
}

type facturaRepo struct{ db *gorm.DB }

func NewFacturaRepository(db *gorm.DB) FacturaRepository { return &facturaRepo{db: db} }

func (r *facturaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Factura, error) {
	var f model.Factura
	err := r.db.WithContext(ctx).Preload("Empresa").Where("id = ?", id).First(&f).Error
	return &f, err
}

func (r *facturaRepo) List(ctx context.Context, filter dto.FacturaFilter) ([]model.Factura, error) {
	var facturas []model.Factura
	q := r.db.WithContext(ctx).Preload("Empresa").Order("fecha_emision DESC")

	if filter.EmpresaID != "" {
		q = q.Where("empresa_id = ?", filter.EmpresaID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.FechaDesde != "" {
		q = q.Where("fecha_emision >= ?", filter.FechaDesde)
	}
	if filter.FechaHasta != "" {
		q = q.Where("fecha_emision <= ?", filter.FechaHasta)
	}

	err := q.Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) GenerarMes(ctx context.Context, mes, anio int) error {
	return r.db.WithContext(ctx).Exec("SELECT generar_facturas_mes(?, ?)", mes, anio).Error
}

func (r *facturaRepo) ListByPeriodo(ctx context.Context, mes, anio int) ([]model.Factura, error) {
	var facturas []model.Factura
	err := r.db.WithContext(ctx).Preload("Empresa").
		Where("EXTRACT(MONTH FROM periodo_inicio) = ? AND EXTRACT(YEAR FROM periodo_inicio) = ?", mes, anio).
		Order("numero_factura").
		Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	res := r.db.WithContext(ctx).Model(&model.Factura{}).Where("id = ?", id).Update("estado", estado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package repository

import (
	"context"

	"github.com/Disi3664/sistema-multas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmpresaRepository interface {
	Create(ctx context.Context, e *model.Empresa) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error)
	// FindByMatricula resolves the empresa owning the vehicle with the given
	// plate. A plate registered under several empresas resolves
	// deterministically to the earliest-registered empresa.
	FindByMatricula(ctx context.Context, tx *gorm.DB, matricula string) (*model.Empresa, error)
	CountByMatricula(ctx context.Context, matricula string) (int64, error)
	List(ctx context.Context, activo *bool) ([]model.Empresa, error)
	Update(ctx context.Context, e *model.Empresa) error
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type empresaRepo struct{ db *gorm.DB }

func NewEmpresaRepository(db *gorm.DB) EmpresaRepository { return &empresaRepo{db: db} }

func (r *empresaRepo) DB() *gorm.DB { return r.db }

func (r *empresaRepo) Create(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *empresaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error) {
	var e model.Empresa
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	return &e, err
}

func (r *empresaRepo) FindByMatricula(ctx context.Context, tx *gorm.DB, matricula string) (*model.Empresa, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var e model.Empresa
	err := db.WithContext(ctx).
		Joins("JOIN vehiculos ON vehiculos.empresa_id = empresas.id").
		Where("vehiculos.matricula = ? AND vehiculos.activo = true", matricula).
		Order("empresas.created_at, empresas.id").
		First(&e).Error
	return &e, err
}

func (r *empresaRepo) CountByMatricula(ctx context.Context, matricula string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Empresa{}).
		Joins("JOIN vehiculos ON vehiculos.empresa_id = empresas.id").
		Where("vehiculos.matricula = ? AND vehiculos.activo = true", matricula).
		Count(&n).Error
	return n, err
}

func (r *empresaRepo) List(ctx context.Context, activo *bool) ([]model.Empresa, error) {
	var empresas []model.Empresa
	q := r.db.WithContext(ctx).Order("nombre")
	if activo != nil {
		q = q.Where("activo = ?", *activo)
	}
	err := q.Find(&empresas).Error
	return empresas, err
}

func (r *empresaRepo) Update(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Save(e).Error
}

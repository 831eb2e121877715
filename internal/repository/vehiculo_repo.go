package repository

import (
	"context"

	"github.com/Disi3664/sistema-multas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehiculoRepository interface {
	Create(ctx context.Context, v *model.Vehiculo) error
	// FindByMatricula returns the empresa's vehicle record for a plate —
	// the source of the conductor DNI used during identification.
	FindByMatricula(ctx context.Context, empresaID uuid.UUID, matricula string) (*model.Vehiculo, error)
	ListByEmpresa(ctx context.Context, empresaID uuid.UUID) ([]model.Vehiculo, error)
}

type vehiculoRepo struct{ db *gorm.DB }

func NewVehiculoRepository(db *gorm.DB) VehiculoRepository { return &vehiculoRepo{db: db} }

func (r *vehiculoRepo) Create(ctx context.Context, v *model.Vehiculo) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vehiculoRepo) FindByMatricula(ctx context.Context, empresaID uuid.UUID, matricula string) (*model.Vehiculo, error) {
	var v model.Vehiculo
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND matricula = ? AND activo = true", empresaID, matricula).
		First(&v).Error
	return &v, err
}

func (r *vehiculoRepo) ListByEmpresa(ctx context.Context, empresaID uuid.UUID) ([]model.Vehiculo, error) {
	var vehiculos []model.Vehiculo
	err := r.db.WithContext(ctx).
		Where("empresa_id = ?", empresaID).
		Order("matricula").
		Find(&vehiculos).Error
	return vehiculos, err
}

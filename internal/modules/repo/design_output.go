package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomforge/api/internal/modules/model"
	"gorm.io/gorm"
)

type DesignOutputRepo interface {
	Create(ctx context.Context, o *model.DesignOutput) error
	CreateBatch(ctx context.Context, outputs []*model.DesignOutput) error
	ListByDesignID(ctx context.Context, designID uuid.UUID) ([]*model.DesignOutput, error)
}

type designOutputRepo struct{ db *gorm.DB }

func NewDesignOutputRepo(db *gorm.DB) DesignOutputRepo {
	return &designOutputRepo{db: db}
}

func (r *designOutputRepo) Create(ctx context.Context, o *model.DesignOutput) error {
	return r.db.WithContext(ctx).Omit("Design").Create(o).Error
}

func (r *designOutputRepo) CreateBatch(ctx context.Context, outputs []*model.DesignOutput) error {
	if len(outputs) == 0 {
		return nil
	}
	// one timestamp per batch so variation_index decides the order within it
	now := time.Now()
	for _, o := range outputs {
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
	}
	return r.db.WithContext(ctx).Omit("Design").Create(&outputs).Error
}

// ListByDesignID returns outputs in creation order, then variation order.
func (r *designOutputRepo) ListByDesignID(ctx context.Context, designID uuid.UUID) ([]*model.DesignOutput, error) {
	var outputs []*model.DesignOutput
	err := r.db.WithContext(ctx).
		Where("design_id = ?", designID).
		Order("created_at ASC").
		Order("variation_index ASC").
		Order("id ASC").
		Find(&outputs).Error
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/roomforge/api/internal/modules/model"
	"gorm.io/gorm"
)

type DesignRepo interface {
	Create(ctx context.Context, d *model.Design) error
	CreateWithPreference(ctx context.Context, d *model.Design, p *model.DesignPreference) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Design, error)
	GetPreference(ctx context.Context, designID uuid.UUID) (*model.DesignPreference, error)
	ListByParentID(ctx context.Context, parentID uuid.UUID) ([]*model.Design, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Design, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DesignStatus) (bool, error)
	HasChildren(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type designRepo struct{ db *gorm.DB }

func NewDesignRepo(db *gorm.DB) DesignRepo {
	return &designRepo{db: db}
}

func (r *designRepo) Create(ctx context.Context, d *model.Design) error {
	return r.db.WithContext(ctx).Omit("Preference", "Parent").Create(d).Error
}

// CreateWithPreference writes the design and its preference row atomically.
func (r *designRepo) CreateWithPreference(ctx context.Context, d *model.Design, p *model.DesignPreference) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Preference", "Parent").Create(d).Error; err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		p.DesignID = d.ID
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		d.Preference = p
		return nil
	})
}

func (r *designRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Design, error) {
	var d model.Design
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *designRepo) GetPreference(ctx context.Context, designID uuid.UUID) (*model.DesignPreference, error) {
	var p model.DesignPreference
	err := r.db.WithContext(ctx).Where("design_id = ?", designID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByParentID returns direct children, oldest first.
func (r *designRepo) ListByParentID(ctx context.Context, parentID uuid.UUID) ([]*model.Design, error) {
	var designs []*model.Design
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&designs).Error
	if err != nil {
		return nil, err
	}
	return designs, nil
}

// ListByOwner returns the owner's designs, newest first. limit <= 0 means no limit.
func (r *designRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Design, error) {
	var designs []*model.Design
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&designs).Error; err != nil {
		return nil, err
	}
	return designs, nil
}

// UpdateStatus moves id from `from` to `to` only if it is still in `from`.
// It reports whether a row changed.
func (r *designRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DesignStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Design{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *designRepo) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Design{}).Where("parent_id = ?", id).Limit(1).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the design with its outputs and preference.
func (r *designRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("design_id = ?", id).Delete(&model.DesignOutput{}).Error; err != nil {
			return err
		}
		if err := tx.Where("design_id = ?", id).Delete(&model.DesignPreference{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Design{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DesignStatus string

const (
	StatusPending    DesignStatus = "PENDING"
	StatusProcessing DesignStatus = "PROCESSING"
	StatusCompleted  DesignStatus = "COMPLETED"
	StatusFailed     DesignStatus = "FAILED"
)

func (s DesignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a design in status s may move to next.
func (s DesignStatus) CanTransition(next DesignStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Design is one node of an owner's generation forest. ParentID is nil for
// roots; GenerationNumber is 1 for roots and parent+1 otherwise.
type Design struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          string       `gorm:"type:varchar(128);not null;index" json:"owner_id"`
	ParentID         *uuid.UUID   `gorm:"type:uuid;index" json:"parent_id"`
	GenerationNumber int          `gorm:"not null;default:1" json:"generation_number"`
	Status           DesignStatus `gorm:"type:varchar(16);not null;default:PENDING;index" json:"status"`
	InputPrompt      string       `gorm:"type:text" json:"input_prompt"`
	AIModel          string       `gorm:"type:varchar(128)" json:"ai_model"`
	UploadedImageURL *string      `gorm:"type:text" json:"uploaded_image_url,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Design <-> Design (parent)
	Parent *Design `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE;" json:"-"`

	// Design <-> DesignPreference
	Preference *DesignPreference `gorm:"foreignKey:DesignID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"preference,omitempty"`
}

func (Design) TableName() string { return "designs" }

func (d *Design) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Design) IsRoot() bool { return d.ParentID == nil }

// DesignPreference holds the room form a root design was created from.
type DesignPreference struct {
	DesignID     uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"design_id"`
	RoomType     string                      `gorm:"type:varchar(64)" json:"room_type"`
	Style        string                      `gorm:"type:varchar(64)" json:"style"`
	Budget       string                      `gorm:"type:varchar(64)" json:"budget,omitempty"`
	ColorPalette datatypes.JSONSlice[string] `gorm:"type:jsonb" swaggertype:"array,string" json:"color_palette,omitempty"`
	Extra        datatypes.JSONMap           `gorm:"type:jsonb" swaggertype:"object" json:"extra,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DesignPreference) TableName() string { return "design_preferences" }

// DesignOutput is one generated image. OutputImageURL is either a data URI
// or an object store URL/key.
type DesignOutput struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	DesignID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"design_id"`
	OutputImageURL       string            `gorm:"type:text;not null" json:"output_image_url"`
	VariationName        string            `gorm:"type:varchar(128)" json:"variation_name"`
	VariationIndex       int               `gorm:"not null;default:0" json:"variation_index"`
	GenerationParameters datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"generation_parameters"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// DesignOutput <-> Design
	Design *Design `gorm:"foreignKey:DesignID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (DesignOutput) TableName() string { return "design_outputs" }

func (o *DesignOutput) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

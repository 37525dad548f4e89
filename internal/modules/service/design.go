package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/infra/blob"
	mq "github.com/roomforge/api/internal/infra/queue"
	"github.com/roomforge/api/internal/modules/model"
	"github.com/roomforge/api/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const referenceViewType = "reference"

type CreateDesignInput struct {
	Prompt           string
	AIModel          string
	UploadedImageURL *string
	RoomType         string
	Style            string
	Budget           string
	ColorPalette     []string
	Extra            map[string]any
}

type RegenerateInput struct {
	Prompt           string
	AIModel          string
	UploadedImageURL *string
}

type DesignDetail struct {
	Design  *model.Design   `json:"design"`
	Outputs []ResolvedImage `json:"outputs"`
}

type DesignService interface {
	Create(ctx context.Context, userID string, in CreateDesignInput) (*model.Design, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*model.Design, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*DesignDetail, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Regenerate(ctx context.Context, userID string, parentID uuid.UUID, in RegenerateInput) (*model.Design, error)
	Chain(ctx context.Context, userID string, id uuid.UUID) ([]*model.Design, error)
	Stats(ctx context.Context, userID string, id uuid.UUID) (*ChainStats, error)
	Children(ctx context.Context, userID string, id uuid.UUID) ([]*model.Design, error)
	Generate(ctx context.Context, userID string, id uuid.UUID, in GenerateInput) (*GenerationResult, error)
	Download(ctx context.Context, userID string, id uuid.UUID) (*DesignDetail, error)
	// UploadReferences stores reference images; progress may be nil.
	UploadReferences(ctx context.Context, userID string, payloads []string, progress ProgressFunc) *BatchResult
}

type designService struct {
	designs    repo.DesignRepo
	outputs    repo.DesignOutputRepo
	lineage    LineageService
	generation GenerationService
	uploader   UploadService
	resolver   ImageResolver
	signer     URLSigner
	store      ObjectStore
	events     mq.EventPublisher
	signing    config.SigningCfg
	log        *zap.Logger
}

type DesignServiceDeps struct {
	Designs    repo.DesignRepo
	Outputs    repo.DesignOutputRepo
	Lineage    LineageService
	Generation GenerationService
	Uploader   UploadService
	Resolver   ImageResolver
	Signer     URLSigner
	Store      ObjectStore
	Events     mq.EventPublisher
	Signing    config.SigningCfg
}

func NewDesignService(deps DesignServiceDeps, log *zap.Logger) DesignService {
	return &designService{
		designs:    deps.Designs,
		outputs:    deps.Outputs,
		lineage:    deps.Lineage,
		generation: deps.Generation,
		uploader:   deps.Uploader,
		resolver:   deps.Resolver,
		signer:     deps.Signer,
		store:      deps.Store,
		events:     deps.Events,
		signing:    deps.Signing,
		log:        log.Named("design"),
	}
}

// owned loads a design and checks it belongs to userID. missing is returned
// when the row does not exist.
func (s *designService) owned(ctx context.Context, userID string, id uuid.UUID, missing error) (*model.Design, error) {
	d, err := s.designs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, missing, "get design")
	}
	if d.OwnerID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

func (s *designService) Create(ctx context.Context, userID string, in CreateDesignInput) (*model.Design, error) {
	var pref *model.DesignPreference
	if in.RoomType != "" || in.Style != "" || in.Budget != "" || len(in.ColorPalette) > 0 || len(in.Extra) > 0 {
		pref = &model.DesignPreference{
			RoomType:     in.RoomType,
			Style:        in.Style,
			Budget:       in.Budget,
			ColorPalette: datatypes.JSONSlice[string](in.ColorPalette),
			Extra:        datatypes.JSONMap(in.Extra),
		}
	}

	d, err := s.lineage.CreateRoot(ctx, CreateRootInput{
		OwnerID:          userID,
		Prompt:           strings.TrimSpace(in.Prompt),
		AIModel:          in.AIModel,
		UploadedImageURL: in.UploadedImageURL,
		Preference:       pref,
	})
	if err != nil {
		return nil, err
	}
	d.Preference = pref
	s.publish(ctx, mq.EventDesignCreated, d)
	return d, nil
}

func (s *designService) List(ctx context.Context, userID string, limit, offset int) ([]*model.Design, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	designs, err := s.designs.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	return designs, nil
}

func (s *designService) Get(ctx context.Context, userID string, id uuid.UUID) (*DesignDetail, error) {
	return s.detail(ctx, userID, id, s.signing.DefaultTTL)
}

func (s *designService) Download(ctx context.Context, userID string, id uuid.UUID) (*DesignDetail, error) {
	d, err := s.detail(ctx, userID, id, s.signing.DownloadTTL)
	if err != nil {
		return nil, err
	}
	if len(d.Outputs) == 0 {
		return nil, ErrNoOutputs
	}
	return d, nil
}

func (s *designService) detail(ctx context.Context, userID string, id uuid.UUID, ttl time.Duration) (*DesignDetail, error) {
	d, err := s.owned(ctx, userID, id, ErrNotFound)
	if err != nil {
		return nil, err
	}

	pref, err := s.designs.GetPreference(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	d.Preference = pref

	outputs, err := s.outputs.ListByDesignID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	return &DesignDetail{
		Design:  d,
		Outputs: s.resolver.ResolveAll(ctx, outputs, ttl),
	}, nil
}

// Delete removes a leaf design with its outputs. Stored objects are removed
// afterwards; a failure there only leaves an orphaned object behind.
func (s *designService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	d, err := s.owned(ctx, userID, id, ErrNotFound)
	if err != nil {
		return err
	}

	hasChildren, err := s.lineage.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return ErrHasChildren
	}

	outputs, err := s.outputs.ListByDesignID(ctx, id)
	if err != nil {
		return fmt.Errorf("list outputs: %w", err)
	}
	if err := s.designs.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrNotFound, "delete design")
	}

	for _, o := range outputs {
		if blob.IsDataURI(o.OutputImageURL) {
			continue
		}
		key, ok := s.signer.ExtractKey(o.OutputImageURL)
		if !ok {
			continue
		}
		if !s.store.Delete(ctx, key) {
			s.log.Warn("stored output not removed", zap.String("design_id", id.String()), zap.String("key", key))
		}
	}

	s.publish(ctx, mq.EventDesignDeleted, d)
	return nil
}

func (s *designService) Regenerate(ctx context.Context, userID string, parentID uuid.UUID, in RegenerateInput) (*model.Design, error) {
	parent, err := s.owned(ctx, userID, parentID, ErrParentNotFound)
	if err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = parent.InputPrompt
	}
	aiModel := in.AIModel
	if aiModel == "" {
		aiModel = parent.AIModel
	}
	image := in.UploadedImageURL
	if image == nil {
		image = parent.UploadedImageURL
	}

	d, err := s.lineage.CreateRegeneration(ctx, RegenerationInput{
		ParentID:         parentID,
		OwnerID:          userID,
		Prompt:           prompt,
		AIModel:          aiModel,
		UploadedImageURL: image,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mq.EventDesignCreated, d)
	return d, nil
}

func (s *designService) Chain(ctx context.Context, userID string, id uuid.UUID) ([]*model.Design, error) {
	if _, err := s.owned(ctx, userID, id, ErrNotFound); err != nil {
		return nil, err
	}
	return s.lineage.GetChain(ctx, id)
}

func (s *designService) Stats(ctx context.Context, userID string, id uuid.UUID) (*ChainStats, error) {
	if _, err := s.owned(ctx, userID, id, ErrNotFound); err != nil {
		return nil, err
	}
	return s.lineage.GetStats(ctx, id)
}

func (s *designService) Children(ctx context.Context, userID string, id uuid.UUID) ([]*model.Design, error) {
	if _, err := s.owned(ctx, userID, id, ErrNotFound); err != nil {
		return nil, err
	}
	return s.lineage.GetDirectChildren(ctx, id)
}

// Generate runs the pipeline for a pending design. An inline uploaded image
// is passed along as a reference when the caller gives none.
func (s *designService) Generate(ctx context.Context, userID string, id uuid.UUID, in GenerateInput) (*GenerationResult, error) {
	d, err := s.owned(ctx, userID, id, ErrNotFound)
	if err != nil {
		return nil, err
	}
	if len(in.ReferenceImages) == 0 && d.UploadedImageURL != nil && blob.IsDataURI(*d.UploadedImageURL) {
		in.ReferenceImages = []string{*d.UploadedImageURL}
	}
	return s.generation.Run(ctx, d, in)
}

func (s *designService) UploadReferences(ctx context.Context, userID string, payloads []string, progress ProgressFunc) *BatchResult {
	var opts []UploadOption
	if progress != nil {
		opts = append(opts, WithProgress(progress))
	}
	return s.uploader.UploadAll(ctx, userID, payloads, referenceViewType, opts...)
}

func (s *designService) publish(ctx context.Context, typ string, d *model.Design) {
	ev := mq.DesignEvent{
		Type:             typ,
		DesignID:         d.ID,
		OwnerID:          d.OwnerID,
		ParentID:         d.ParentID,
		Status:           string(d.Status),
		GenerationNumber: d.GenerationNumber,
		At:               time.Now().UTC(),
	}
	if err := s.events.PublishDesignEvent(ctx, ev); err != nil {
		s.log.Warn("publish design event failed", zap.String("design_id", d.ID.String()), zap.String("type", typ), zap.Error(err))
	}
}

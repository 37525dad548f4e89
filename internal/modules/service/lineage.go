package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/roomforge/api/internal/modules/model"
	"github.com/roomforge/api/internal/modules/repo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxChainDepth bounds any walk over parent links. Reaching it is reported
// as a cycle.
const MaxChainDepth = 1000

const tracerName = "github.com/roomforge/api/internal/modules/service"

type CreateRootInput struct {
	OwnerID          string
	Prompt           string
	AIModel          string
	UploadedImageURL *string
	Preference       *model.DesignPreference
}

type RegenerationInput struct {
	ParentID         uuid.UUID
	OwnerID          string
	Prompt           string
	AIModel          string
	UploadedImageURL *string
}

type ChainStats struct {
	TotalNodes        int         `json:"total_nodes"`
	RootID            uuid.UUID   `json:"root_id"`
	LatestID          uuid.UUID   `json:"latest_id"`
	GenerationNumbers []int       `json:"generation_numbers"`
	CreatedDates      []time.Time `json:"created_dates"`
}

type LineageService interface {
	CreateRoot(ctx context.Context, in CreateRootInput) (*model.Design, error)
	CreateRegeneration(ctx context.Context, in RegenerationInput) (*model.Design, error)
	FindRoot(ctx context.Context, designID uuid.UUID) (*model.Design, error)
	GetChain(ctx context.Context, designID uuid.UUID) ([]*model.Design, error)
	GetStats(ctx context.Context, designID uuid.UUID) (*ChainStats, error)
	HasChildren(ctx context.Context, designID uuid.UUID) (bool, error)
	GetDirectChildren(ctx context.Context, designID uuid.UUID) ([]*model.Design, error)
	TransitionStatus(ctx context.Context, designID uuid.UUID, to model.DesignStatus) (*model.Design, error)
}

type lineageService struct {
	r   repo.DesignRepo
	log *zap.Logger
}

func NewLineageService(r repo.DesignRepo, log *zap.Logger) LineageService {
	return &lineageService{r: r, log: log.Named("lineage")}
}

func (s *lineageService) CreateRoot(ctx context.Context, in CreateRootInput) (*model.Design, error) {
	d := &model.Design{
		OwnerID:          in.OwnerID,
		GenerationNumber: 1,
		Status:           model.StatusPending,
		InputPrompt:      in.Prompt,
		AIModel:          in.AIModel,
		UploadedImageURL: in.UploadedImageURL,
	}
	if err := s.r.CreateWithPreference(ctx, d, in.Preference); err != nil {
		return nil, fmt.Errorf("create root design: %w", err)
	}
	return d, nil
}

// CreateRegeneration appends a child to the parent. Ownership of the parent
// is checked by the caller.
func (s *lineageService) CreateRegeneration(ctx context.Context, in RegenerationInput) (*model.Design, error) {
	parent, err := s.r.GetByID(ctx, in.ParentID)
	if err != nil {
		return nil, notFoundOr(err, ErrParentNotFound, "get parent design")
	}

	parentID := parent.ID
	d := &model.Design{
		OwnerID:          in.OwnerID,
		ParentID:         &parentID,
		GenerationNumber: parent.GenerationNumber + 1,
		Status:           model.StatusPending,
		InputPrompt:      in.Prompt,
		AIModel:          in.AIModel,
		UploadedImageURL: in.UploadedImageURL,
	}
	if err := s.r.Create(ctx, d); err != nil {
		// parent removed between read and insert
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrParentNotFound
		}
		return nil, fmt.Errorf("create regeneration: %w", err)
	}
	return d, nil
}

// FindRoot follows parent links upward. A parent that no longer resolves
// ends the walk: the highest reachable design is returned.
func (s *lineageService) FindRoot(ctx context.Context, designID uuid.UUID) (*model.Design, error) {
	cur, err := s.r.GetByID(ctx, designID)
	if err != nil {
		return nil, notFoundOr(err, ErrNotFound, "get design")
	}

	visited := map[uuid.UUID]struct{}{cur.ID: {}}
	for depth := 0; cur.ParentID != nil; depth++ {
		if depth >= MaxChainDepth {
			return nil, fmt.Errorf("%w: depth limit %d reached from %s", ErrCycleDetected, MaxChainDepth, designID)
		}
		parentID := *cur.ParentID
		if _, seen := visited[parentID]; seen {
			return nil, fmt.Errorf("%w: %s revisited", ErrCycleDetected, parentID)
		}
		visited[parentID] = struct{}{}

		parent, err := s.r.GetByID(ctx, parentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("dangling parent link, treating design as root",
				zap.String("design_id", cur.ID.String()), zap.String("parent_id", parentID.String()))
			return cur, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get parent design: %w", err)
		}
		cur = parent
	}
	return cur, nil
}

// GetChain returns the whole tree the design belongs to in depth-first
// preorder: every parent precedes its children, siblings oldest first.
func (s *lineageService) GetChain(ctx context.Context, designID uuid.UUID) ([]*model.Design, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "lineage.get_chain")
	defer span.End()

	root, err := s.FindRoot(ctx, designID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		chain   []*model.Design
		stack   = []*model.Design{root}
		visited = map[uuid.UUID]struct{}{}
	)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[node.ID]; seen {
			continue
		}
		visited[node.ID] = struct{}{}
		chain = append(chain, node)

		children, err := s.r.ListByParentID(ctx, node.ID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("list children of %s: %w", node.ID, err)
		}
		// push newest first so the oldest sibling is visited next
		for _, child := range slices.Backward(children) {
			if _, seen := visited[child.ID]; !seen {
				stack = append(stack, child)
			}
		}
	}

	span.SetAttributes(attribute.Int("chain.size", len(chain)))
	return chain, nil
}

func (s *lineageService) GetStats(ctx context.Context, designID uuid.UUID) (*ChainStats, error) {
	chain, err := s.GetChain(ctx, designID)
	if err != nil {
		return nil, err
	}

	stats := &ChainStats{
		TotalNodes:        len(chain),
		RootID:            chain[0].ID,
		LatestID:          chain[len(chain)-1].ID,
		GenerationNumbers: make([]int, len(chain)),
		CreatedDates:      make([]time.Time, len(chain)),
	}
	for i, d := range chain {
		stats.GenerationNumbers[i] = d.GenerationNumber
		stats.CreatedDates[i] = d.CreatedAt
	}
	return stats, nil
}

func (s *lineageService) HasChildren(ctx context.Context, designID uuid.UUID) (bool, error) {
	has, err := s.r.HasChildren(ctx, designID)
	if err != nil {
		return false, fmt.Errorf("check children: %w", err)
	}
	return has, nil
}

func (s *lineageService) GetDirectChildren(ctx context.Context, designID uuid.UUID) ([]*model.Design, error) {
	children, err := s.r.ListByParentID(ctx, designID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// TransitionStatus moves the design along PENDING -> PROCESSING ->
// COMPLETED|FAILED. The write only lands if nobody moved it first.
func (s *lineageService) TransitionStatus(ctx context.Context, designID uuid.UUID, to model.DesignStatus) (*model.Design, error) {
	d, err := s.r.GetByID(ctx, designID)
	if err != nil {
		return nil, notFoundOr(err, ErrNotFound, "get design")
	}
	if !d.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}

	ok, err := s.r.UpdateStatus(ctx, designID, d.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update design status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, designID)
	}

	s.log.Debug("design status changed",
		zap.String("design_id", designID.String()),
		zap.String("from", string(d.Status)),
		zap.String("to", string(to)))
	d.Status = to
	return d, nil
}

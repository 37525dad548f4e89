package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/infra/blob"
	"github.com/roomforge/api/internal/infra/imagegen"
	mq "github.com/roomforge/api/internal/infra/queue"
	"github.com/roomforge/api/internal/modules/model"
	"github.com/roomforge/api/internal/modules/repo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const renderViewType = "render"

type GenerateInput struct {
	Variations      int
	ReferenceImages []string
}

type GenerationResult struct {
	Design  *model.Design         `json:"design"`
	Outputs []*model.DesignOutput `json:"outputs"`
	// Failures holds one message per variation that produced no output.
	Failures []string     `json:"failures,omitempty"`
	Upload   *BatchResult `json:"upload,omitempty"`
}

type GenerationService interface {
	Run(ctx context.Context, d *model.Design, in GenerateInput) (*GenerationResult, error)
}

type generationService struct {
	lineage  LineageService
	outputs  repo.DesignOutputRepo
	gen      imagegen.Generator
	uploader UploadService
	store    ObjectStore
	events   mq.EventPublisher
	cfg      config.GeneratorCfg
	log      *zap.Logger
}

func NewGenerationService(
	lineage LineageService,
	outputs repo.DesignOutputRepo,
	gen imagegen.Generator,
	uploader UploadService,
	store ObjectStore,
	events mq.EventPublisher,
	cfg config.GeneratorCfg,
	log *zap.Logger,
) GenerationService {
	return &generationService{
		lineage:  lineage,
		outputs:  outputs,
		gen:      gen,
		uploader: uploader,
		store:    store,
		events:   events,
		cfg:      cfg,
		log:      log.Named("generation"),
	}
}

type generated struct {
	variation int
	uri       string
}

// Run drives one design from PENDING to a terminal status. Images are
// uploaded when storage is enabled and kept inline otherwise, or when their
// upload failed.
func (s *generationService) Run(ctx context.Context, d *model.Design, in GenerateInput) (*GenerationResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "generation.run")
	defer span.End()
	span.SetAttributes(attribute.String("design.id", d.ID.String()))

	processing, err := s.lineage.TransitionStatus(ctx, d.ID, model.StatusProcessing)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, processing, 0)

	images, failures, unavailable := s.generateAll(ctx, processing, in)
	res := &GenerationResult{Failures: failures}

	if len(images) == 0 {
		res.Design = s.finish(ctx, processing, model.StatusFailed, 0)
		if unavailable {
			return res, imagegen.ErrGeneratorUnavailable
		}
		return res, ErrNoOutputs
	}

	outputs, upload := s.persistable(ctx, processing, images)
	res.Upload = upload
	if err := s.outputs.CreateBatch(ctx, outputs); err != nil {
		s.finish(ctx, processing, model.StatusFailed, 0)
		span.RecordError(err)
		return nil, fmt.Errorf("save design outputs: %w", err)
	}

	res.Outputs = outputs
	res.Design = s.finish(ctx, processing, model.StatusCompleted, len(outputs))
	return res, nil
}

// generateAll reports unavailable when every variation failed because no
// generator is configured.
func (s *generationService) generateAll(ctx context.Context, d *model.Design, in GenerateInput) ([]generated, []string, bool) {
	n := in.Variations
	if n < 1 {
		n = s.cfg.Variations
	}
	if n < 1 {
		n = 1
	}
	limit := s.cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	uris := make([]string, n)
	errs := make([]error, n)
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			uris[i], errs[i] = s.gen.Generate(ctx, imagegen.Request{
				Prompt:          d.InputPrompt,
				ReferenceImages: in.ReferenceImages,
				Variation:       i + 1,
			})
		}(i)
	}
	wg.Wait()

	var (
		images   []generated
		failures []string
	)
	unavailable := true
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			s.log.Warn("variation failed", zap.String("design_id", d.ID.String()), zap.Int("variation", i+1), zap.Error(errs[i]))
			failures = append(failures, fmt.Sprintf("variation %d: %v", i+1, errs[i]))
			unavailable = unavailable && errors.Is(errs[i], imagegen.ErrGeneratorUnavailable)
			continue
		}
		unavailable = false
		images = append(images, generated{variation: i + 1, uri: uris[i]})
	}
	return images, failures, unavailable
}

// persistable turns generated images into output rows, uploading them first
// when the store is available.
func (s *generationService) persistable(ctx context.Context, d *model.Design, images []generated) ([]*model.DesignOutput, *BatchResult) {
	uris := make([]string, len(images))
	for i, img := range images {
		uris[i] = img.uri
	}

	var upload *BatchResult
	if s.store.Enabled() {
		upload = s.uploader.UploadAll(ctx, d.OwnerID, uris, renderViewType)
	} else {
		s.log.Warn("object storage disabled, keeping inline payloads", zap.String("design_id", d.ID.String()))
	}

	outputs := make([]*model.DesignOutput, len(images))
	for i, img := range images {
		params := datatypes.JSONMap{
			"model":     s.gen.Model(),
			"prompt":    d.InputPrompt,
			"variation": img.variation,
			"inline":    true,
		}
		stored := img.uri
		if upload != nil && upload.URLs[i] != nil {
			stored = *upload.URLs[i]
			params["inline"] = false
			params["storage_key"] = *upload.Keys[i]
		}
		outputs[i] = &model.DesignOutput{
			DesignID:             d.ID,
			OutputImageURL:       stored,
			VariationName:        fmt.Sprintf("Variation %d", img.variation),
			VariationIndex:       img.variation,
			GenerationParameters: params,
		}
	}
	return outputs, upload
}

// finish records the terminal status even when the request context is gone.
func (s *generationService) finish(ctx context.Context, d *model.Design, to model.DesignStatus, outputCount int) *model.Design {
	ctx = context.WithoutCancel(ctx)
	done, err := s.lineage.TransitionStatus(ctx, d.ID, to)
	if err != nil {
		s.log.Error("finalize design status failed",
			zap.String("design_id", d.ID.String()), zap.String("status", string(to)), zap.Error(err))
		return d
	}
	s.publish(ctx, done, outputCount)
	return done
}

func (s *generationService) publish(ctx context.Context, d *model.Design, outputCount int) {
	ev := mq.DesignEvent{
		Type:             mq.EventDesignStatusChanged,
		DesignID:         d.ID,
		OwnerID:          d.OwnerID,
		ParentID:         d.ParentID,
		Status:           string(d.Status),
		GenerationNumber: d.GenerationNumber,
		OutputCount:      outputCount,
		At:               time.Now().UTC(),
	}
	if err := s.events.PublishDesignEvent(ctx, ev); err != nil {
		s.log.Warn("publish design event failed", zap.String("design_id", d.ID.String()), zap.Error(err))
	}
}

var _ ObjectStore = (*blob.S3Deps)(nil)

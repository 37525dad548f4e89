package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomforge/api/internal/infra/blob"
	"github.com/roomforge/api/internal/modules/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// URLSigner is satisfied by *blob.Signer and *cache.CachingSigner.
type URLSigner interface {
	Sign(ctx context.Context, key string, ttl time.Duration) (string, bool)
	ExtractKey(raw string) (string, bool)
	IsStorageURL(raw string) bool
}

type ResolvedImage struct {
	OutputID      uuid.UUID `json:"output_id"`
	VariationName string    `json:"variation_name"`
	URL           string    `json:"url"`
	IsInline      bool      `json:"is_inline"`
	IsSigned      bool      `json:"is_signed"`
}

type ImageResolver interface {
	Resolve(ctx context.Context, o *model.DesignOutput, ttl time.Duration) ResolvedImage
	ResolveAll(ctx context.Context, outputs []*model.DesignOutput, ttl time.Duration) []ResolvedImage
}

type imageResolver struct {
	signer URLSigner
	log    *zap.Logger
}

func NewImageResolver(signer URLSigner, log *zap.Logger) ImageResolver {
	return &imageResolver{signer: signer, log: log.Named("resolver")}
}

// Resolve never fails. Inline payloads come back unchanged without touching
// the signer; our objects come back signed when possible; everything else,
// including every signing failure, comes back as stored.
func (r *imageResolver) Resolve(ctx context.Context, o *model.DesignOutput, ttl time.Duration) ResolvedImage {
	raw := o.OutputImageURL
	out := ResolvedImage{OutputID: o.ID, VariationName: o.VariationName, URL: raw}

	if blob.IsDataURI(raw) {
		out.IsInline = true
		return out
	}
	if !r.ours(raw) {
		return out
	}

	key, ok := r.signer.ExtractKey(raw)
	if !ok {
		r.log.Warn("cannot extract object key, serving stored url", zap.String("output_id", o.ID.String()))
		return out
	}
	signed, ok := r.signer.Sign(ctx, key, ttl)
	if !ok {
		r.log.Warn("signing failed, serving stored url", zap.String("output_id", o.ID.String()), zap.String("key", key))
		return out
	}

	out.URL = signed
	out.IsSigned = true
	return out
}

// ours is true for scheme-less keys and URLs on the storage host.
func (r *imageResolver) ours(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	return r.signer.IsStorageURL(trimmed)
}

// ResolveAll resolves every output concurrently; result i belongs to outputs[i].
func (r *imageResolver) ResolveAll(ctx context.Context, outputs []*model.DesignOutput, ttl time.Duration) []ResolvedImage {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "resolver.resolve_all")
	defer span.End()
	span.SetAttributes(attribute.Int("outputs", len(outputs)))

	resolved := make([]ResolvedImage, len(outputs))
	var wg sync.WaitGroup
	for i, o := range outputs {
		wg.Add(1)
		go func(i int, o *model.DesignOutput) {
			defer wg.Done()
			resolved[i] = r.Resolve(ctx, o, ttl)
		}(i, o)
	}
	wg.Wait()
	return resolved
}

package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/infra/blob"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash-image"

type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini sends the prompt together with inline reference images.
type Gemini struct {
	models contentAPI
	model  string
	log    *zap.Logger
}

func NewGemini(ctx context.Context, cfg config.GeneratorCfg, log *zap.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, cfg, log), nil
}

func newGemini(models contentAPI, cfg config.GeneratorCfg, log *zap.Logger) *Gemini {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{models: models, model: model, log: log}
}

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for i, ref := range req.ReferenceImages {
		p, err := blob.DecodeDataURI(ref)
		if err != nil {
			return "", fmt.Errorf("reference image %d: %w", i, err)
		}
		parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIME))
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResult
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				return fromBytes(part.InlineData.Data)
			}
		}
	}
	return "", ErrEmptyResult
}

package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/roomforge/api/internal/config"
	"go.uber.org/zap"
)

const defaultOpenAIModel = "gpt-image-1"

type imagesAPI interface {
	Generate(ctx context.Context, body openai.ImageGenerateParams, opts ...option.RequestOption) (*openai.ImagesResponse, error)
}

// OpenAI is text-to-image only; reference images are not sent.
type OpenAI struct {
	images imagesAPI
	model  string
	size   string
	log    *zap.Logger
}

func NewOpenAI(cfg config.GeneratorCfg, log *zap.Logger) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return newOpenAI(&client.Images, cfg, log)
}

func newOpenAI(images imagesAPI, cfg config.GeneratorCfg, log *zap.Logger) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{images: images, model: model, size: cfg.Size, log: log}
}

func (g *OpenAI) Model() string { return g.model }

func (g *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(g.model),
		N:      openai.Int(1),
	}
	if g.size != "" {
		params.Size = openai.ImageGenerateParamsSize(g.size)
	}
	// gpt-image models always answer in base64 and reject response_format
	if strings.HasPrefix(g.model, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}
	if len(req.ReferenceImages) > 0 {
		g.log.Debug("openai generator ignores reference images", zap.Int("count", len(req.ReferenceImages)))
	}

	resp, err := g.images.Generate(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai generate image: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", ErrEmptyResult
	}
	return fromBase64(resp.Data[0].B64JSON)
}

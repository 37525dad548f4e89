// Package imagegen is the AI generation boundary: a prompt plus optional
// reference images in, one image data URI out.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/infra/blob"
	"go.uber.org/zap"
)

var (
	ErrGeneratorUnavailable = errors.New("image generator not configured")
	ErrEmptyResult          = errors.New("generator returned no image")
)

type Request struct {
	Prompt string
	// ReferenceImages are data URIs.
	ReferenceImages []string
	// Variation is the 1-based index of this render within its batch.
	Variation int
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// New picks the provider named in cfg. "none" (or empty) gives a generator
// that always reports ErrGeneratorUnavailable.
func New(ctx context.Context, cfg config.GeneratorCfg, log *zap.Logger) (Generator, error) {
	log = log.Named("imagegen")
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		log.Info("image generation disabled")
		return Unavailable{}, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("generator.api_key is required for openai")
		}
		return NewOpenAI(cfg, log), nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("generator.api_key is required for gemini")
		}
		return NewGemini(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}

type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (string, error) {
	return "", ErrGeneratorUnavailable
}

func (Unavailable) Model() string { return "" }

// fromBytes builds a data URI, trusting the sniffed type over any declared one.
func fromBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyResult
	}
	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("generator returned %s, not an image", mime)
	}
	return blob.EncodeDataURI(mime, data), nil
}

func fromBase64(b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decode generated image: %w", err)
	}
	return fromBytes(data)
}

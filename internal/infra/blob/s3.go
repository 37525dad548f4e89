package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/pkg/utils/path"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.uber.org/zap"
)

// ImmutableCacheControl is safe because every upload gets a fresh key.
const ImmutableCacheControl = "public, max-age=31536000, immutable"

type UploadedMeta struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
	ETag   string `json:"etag"`
	SHA256 string `json:"sha256"`
	MIME   string `json:"mime"`
	SizeB  int64  `json:"size_b"`
}

type uploaderAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Deps is the artifact store. A zero-client S3Deps is the disabled state:
// every operation reports ErrStorageUnavailable (or false) instead of failing
// hard, and URL matching still works off the configuration.
type S3Deps struct {
	client    objectAPI
	uploader  uploaderAPI
	presigner presignAPI
	cfg       config.S3Cfg
	log       *zap.Logger
}

// NewS3 never returns an error. Missing configuration or an AWS config that
// cannot be loaded yields a disabled adapter.
func NewS3(ctx context.Context, cfg config.S3Cfg, log *zap.Logger) *S3Deps {
	log = log.Named("blob")
	if !cfg.Configured() {
		log.Warn("object storage not configured, running without uploads")
		return &S3Deps{cfg: cfg, log: log}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		log.Warn("load aws config failed, running without uploads", zap.Error(err))
		return &S3Deps{cfg: cfg, log: log}
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Deps(client, manager.NewUploader(client), s3.NewPresignClient(client), cfg, log)
}

func newS3Deps(client objectAPI, uploader uploaderAPI, presigner presignAPI, cfg config.S3Cfg, log *zap.Logger) *S3Deps {
	return &S3Deps{client: client, uploader: uploader, presigner: presigner, cfg: cfg, log: log}
}

func (s *S3Deps) Enabled() bool {
	return s != nil && s.client != nil && s.uploader != nil
}

func (s *S3Deps) Bucket() string { return s.cfg.Bucket }

// Put writes one immutable object.
func (s *S3Deps) Put(ctx context.Context, key string, data []byte, mime string) (*UploadedMeta, error) {
	if !s.Enabled() {
		return nil, ErrStorageUnavailable
	}
	if err := path.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mime),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String(ImmutableCacheControl),
		Metadata:      map[string]string{"sha256": digest},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put %s: %w", ErrUploadFailed, key, err)
	}

	return &UploadedMeta{
		Bucket: s.cfg.Bucket,
		Key:    key,
		URL:    s.PublicURL(key),
		ETag:   strings.Trim(aws.ToString(out.ETag), `"`),
		SHA256: digest,
		MIME:   mime,
		SizeB:  int64(len(data)),
	}, nil
}

// Delete is best effort; callers already consider the owning record gone.
func (s *S3Deps) Delete(ctx context.Context, key string) bool {
	if !s.Enabled() {
		return false
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Warn("delete object failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Exists treats every error, including transport errors, as "not there".
func (s *S3Deps) Exists(ctx context.Context, key string) bool {
	if !s.Enabled() {
		return false
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

func (s *S3Deps) PresignGet(ctx context.Context, key string, expire time.Duration) (string, error) {
	if !s.Enabled() || s.presigner == nil {
		return "", ErrStorageUnavailable
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expire))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

// PublicURL is the unsigned address of key.
func (s *S3Deps) PublicURL(key string) string {
	escaped := escapeKey(key)
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + escaped
	}
	if s.cfg.Endpoint != "" {
		base := strings.TrimRight(s.cfg.Endpoint, "/")
		if s.cfg.UsePathStyle {
			return base + "/" + s.cfg.Bucket + "/" + escaped
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			return u.Scheme + "://" + s.cfg.Bucket + "." + u.Host + "/" + escaped
		}
		return base + "/" + s.cfg.Bucket + "/" + escaped
	}
	return "https://" + s.cfg.Bucket + ".s3." + s.cfg.Region + ".amazonaws.com/" + escaped
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

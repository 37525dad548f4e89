package blob

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/pkg/retry"
	"github.com/roomforge/api/internal/pkg/utils/path"
	"go.uber.org/zap"
)

const (
	// DefaultSignTTL is used for regular display.
	DefaultSignTTL = time.Hour
	// DownloadSignTTL is used when the client keeps the URL for a long session.
	DownloadSignTTL = 4 * time.Hour
)

// Signer turns object keys into time-limited URLs and recovers keys from
// URLs that point at our bucket.
type Signer struct {
	store  *S3Deps
	policy retry.Policy
	log    *zap.Logger
}

func NewSigner(store *S3Deps, cfg config.SigningCfg, log *zap.Logger) *Signer {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Signer{
		store:  store,
		policy: retry.Policy{MaxAttempts: attempts, BaseDelay: 200 * time.Millisecond, MaxDelay: time.Second},
		log:    log.Named("signer"),
	}
}

// Sign returns ("", false) on any failure; callers fall back to the URL they
// already have.
func (s *Signer) Sign(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	if !s.store.Enabled() {
		return "", false
	}
	key = path.NormalizeKey(key)
	if err := path.ValidateKey(key); err != nil {
		s.log.Warn("refusing to sign invalid key", zap.String("key", key), zap.Error(err))
		return "", false
	}
	if ttl <= 0 {
		ttl = DefaultSignTTL
	}

	signed, attempts, err := retry.Do(ctx, s.policy, func(ctx context.Context, _ int) (string, error) {
		return s.store.PresignGet(ctx, key, ttl)
	})
	if err != nil {
		s.log.Warn("sign object failed", zap.String("key", key), zap.Int("attempts", attempts), zap.Error(err))
		return "", false
	}
	return signed, true
}

// ExtractKey recovers the object key from a bare key or any URL form we
// hand out. It never panics on malformed input.
func (s *Signer) ExtractKey(raw string) (string, bool) {
	return s.store.keyFromURL(raw)
}

// IsStorageURL reports whether raw is an absolute URL on our bucket.
func (s *Signer) IsStorageURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	_, ok := s.store.matchURL(u)
	return ok
}

func (s *S3Deps) keyFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || IsDataURI(raw) {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	var key string
	switch {
	case u.Scheme == "" && u.Host == "":
		key = path.NormalizeKey(u.Path)
	case u.Scheme == "http" || u.Scheme == "https":
		matched, ok := s.matchURL(u)
		if !ok {
			return "", false
		}
		key = matched
	default:
		return "", false
	}

	if err := path.ValidateKey(key); err != nil {
		return "", false
	}
	return key, true
}

// matchURL returns the key part of u when its host and path belong to our
// bucket: public base URL, virtual-hosted or path-style addressing.
func (s *S3Deps) matchURL(u *url.URL) (string, bool) {
	bucket := s.cfg.Bucket
	if bucket == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())

	if s.cfg.PublicBaseURL != "" {
		if base, err := url.Parse(s.cfg.PublicBaseURL); err == nil && base.Host != "" &&
			strings.EqualFold(base.Host, u.Host) {
			prefix := strings.TrimRight(base.Path, "/") + "/"
			if strings.HasPrefix(u.Path, prefix) {
				return path.NormalizeKey(strings.TrimPrefix(u.Path, prefix)), true
			}
		}
	}

	if s.cfg.Endpoint != "" {
		if ep, err := url.Parse(s.cfg.Endpoint); err == nil && ep.Host != "" {
			if strings.EqualFold(ep.Host, u.Host) {
				return trimBucket(u.Path, bucket)
			}
			if strings.EqualFold(bucket+"."+ep.Host, u.Host) {
				return path.NormalizeKey(u.Path), true
			}
		}
	}

	region := strings.ToLower(s.cfg.Region)
	vhosts := []string{bucket + ".s3.amazonaws.com"}
	phosts := []string{"s3.amazonaws.com"}
	if region != "" {
		vhosts = append(vhosts, bucket+".s3."+region+".amazonaws.com", bucket+".s3-"+region+".amazonaws.com")
		phosts = append(phosts, "s3."+region+".amazonaws.com", "s3-"+region+".amazonaws.com")
	}
	for _, h := range vhosts {
		if host == strings.ToLower(h) {
			return path.NormalizeKey(u.Path), true
		}
	}
	for _, h := range phosts {
		if host == h {
			return trimBucket(u.Path, bucket)
		}
	}
	return "", false
}

func trimBucket(p, bucket string) (string, bool) {
	prefix := "/" + bucket + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return strings.TrimPrefix(p, prefix), true
}

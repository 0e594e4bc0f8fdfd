package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/translator"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type translationStore interface {
	Get(ctx context.Context, sourceText, sourceLang, targetLang string) (string, error)
	Upsert(ctx context.Context, sourceText, sourceLang, targetLang, translatedText string) error
}

type translationHotTier interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

type translationMetrics interface {
	RecordCacheLookup(tier, outcome string)
	RecordRemoteCall(duration time.Duration, failed bool)
	RecordIdentityFallbacks(count int)
}

// TranslationOptions tune the remote fallback behavior.
type TranslationOptions struct {
	SourceLang string
	TargetLang string
	MaxRetries int
	RetryDelay time.Duration
	HotTierTTL time.Duration
}

// TranslationService resolves Chinese texts to English through a two-tier
// cache (Redis in front of Postgres) with a batched remote LLM fallback.
// Remote failure degrades to identity: callers always get a value for every
// input, and failed texts are never cached so a later request retries them.
type TranslationService struct {
	store   translationStore
	hot     translationHotTier
	client  translator.Client
	metrics translationMetrics
	logger  *zap.Logger
	opts    TranslationOptions
}

// NewTranslationService constructs the service. hot, client and metrics may
// be nil; the service degrades accordingly (no hot tier, identity-only, no
// instrumentation).
func NewTranslationService(store translationStore, hot translationHotTier, client translator.Client, metrics translationMetrics, opts TranslationOptions, logger *zap.Logger) *TranslationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SourceLang == "" {
		opts.SourceLang = "zh"
	}
	if opts.TargetLang == "" {
		opts.TargetLang = "en"
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.HotTierTTL <= 0 {
		opts.HotTierTTL = 24 * time.Hour
	}
	return &TranslationService{store: store, hot: hot, client: client, metrics: metrics, logger: logger, opts: opts}
}

// hotKey builds the Redis key for a source text. Texts can be arbitrarily
// long, so the key carries a digest rather than the text itself.
func (s *TranslationService) hotKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "translation:" + s.opts.SourceLang + ":" + s.opts.TargetLang + ":" + hex.EncodeToString(sum[:])
}

// LookupCached returns the cached translation for a single text, or
// ErrCacheMiss. It never triggers a remote call.
func (s *TranslationService) LookupCached(ctx context.Context, text string) (string, error) {
	if translated, ok := s.lookupHot(ctx, text); ok {
		return translated, nil
	}

	translated, err := s.store.Get(ctx, text, s.opts.SourceLang, s.opts.TargetLang)
	if errors.Is(err, appErrors.ErrCacheMiss) {
		s.recordLookup(CacheTierPostgres, CacheOutcomeMiss)
		return "", appErrors.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	s.recordLookup(CacheTierPostgres, CacheOutcomeHit)
	s.backfillHot(ctx, text, translated)
	return translated, nil
}

// Translate resolves every input text to a translation. Inputs are deduped,
// cached texts are served locally, and the remaining misses go to the remote
// translator in a single batch call with retries. If the remote ultimately
// fails, missing texts map to themselves.
//
// courseContext is free-form subject matter hinting for the translator; it
// does not participate in cache keys.
func (s *TranslationService) Translate(ctx context.Context, texts []string, courseContext string) map[string]string {
	result := make(map[string]string, len(texts))

	var misses []string
	for _, text := range texts {
		if text == "" {
			result[text] = ""
			continue
		}
		if _, seen := result[text]; seen {
			continue
		}
		translated, err := s.LookupCached(ctx, text)
		if err == nil {
			result[text] = translated
			continue
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			// Storage trouble reads as a miss so the page still renders.
			s.logger.Warn("translation cache read failed", zap.Error(err))
			s.recordLookup(CacheTierPostgres, CacheOutcomeError)
		}
		result[text] = text
		misses = append(misses, text)
	}

	if len(misses) == 0 {
		return result
	}

	translated, err := s.translateRemote(ctx, misses, courseContext)
	if err != nil {
		s.logger.Warn("remote translation failed, serving texts verbatim",
			zap.Int("count", len(misses)), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordIdentityFallbacks(len(misses))
		}
		return result
	}

	for i, text := range misses {
		result[text] = translated[i]
		if err := s.store.Upsert(ctx, text, s.opts.SourceLang, s.opts.TargetLang, translated[i]); err != nil {
			s.logger.Warn("translation upsert failed", zap.Error(err))
		}
		s.backfillHot(ctx, text, translated[i])
	}
	return result
}

// translateRemote calls the translator with retries and a fixed delay
// between attempts.
func (s *TranslationService) translateRemote(ctx context.Context, texts []string, courseContext string) ([]string, error) {
	if s.client == nil {
		return nil, errors.New("no translator configured")
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		start := time.Now()
		translated, err := s.client.TranslateBatch(ctx, texts, courseContext)
		if s.metrics != nil {
			s.metrics.RecordRemoteCall(time.Since(start), err != nil)
		}
		if err == nil {
			return translated, nil
		}
		lastErr = err
		s.logger.Warn("translation batch attempt failed",
			zap.Int("attempt", attempt), zap.Int("max_retries", s.opts.MaxRetries), zap.Error(err))

		// A count mismatch is a completed response, not a transport failure;
		// retrying the identical prompt will not fix it.
		if errors.Is(err, translator.ErrCountMismatch) {
			return nil, err
		}

		if attempt < s.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.opts.RetryDelay):
			}
		}
	}
	return nil, lastErr
}

func (s *TranslationService) lookupHot(ctx context.Context, text string) (string, bool) {
	if s.hot == nil {
		return "", false
	}
	translated, err := s.hot.GetString(ctx, s.hotKey(text))
	if err == nil {
		s.recordLookup(CacheTierRedis, CacheOutcomeHit)
		return translated, true
	}
	if errors.Is(err, appErrors.ErrCacheMiss) {
		s.recordLookup(CacheTierRedis, CacheOutcomeMiss)
	} else {
		s.logger.Warn("translation hot tier read failed", zap.Error(err))
		s.recordLookup(CacheTierRedis, CacheOutcomeError)
	}
	return "", false
}

func (s *TranslationService) backfillHot(ctx context.Context, text, translated string) {
	if s.hot == nil {
		return
	}
	if err := s.hot.SetString(ctx, s.hotKey(text), translated, s.opts.HotTierTTL); err != nil {
		s.logger.Warn("translation hot tier write failed", zap.Error(err))
	}
}

func (s *TranslationService) recordLookup(tier, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(tier, outcome)
	}
}

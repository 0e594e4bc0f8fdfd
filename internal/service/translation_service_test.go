package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/translator"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type fakeTranslationStore struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	upserts int
}

func newFakeTranslationStore() *fakeTranslationStore {
	return &fakeTranslationStore{data: map[string]string{}}
}

func (f *fakeTranslationStore) Get(_ context.Context, sourceText, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	translated, ok := f.data[sourceText]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	return translated, nil
}

func (f *fakeTranslationStore) Upsert(_ context.Context, sourceText, _, _, translatedText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.data[sourceText] = translatedText
	return nil
}

type fakeHotTier struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newFakeHotTier() *fakeHotTier {
	return &fakeHotTier{data: map[string]string{}}
}

func (f *fakeHotTier) GetString(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.data[key]
	if !ok {
		return "", appErrors.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeHotTier) SetString(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

type fakeTranslator struct {
	mu       sync.Mutex
	calls    int
	batches  [][]string
	failures int
	batchErr error
	respond  func(texts []string) []string
}

func (f *fakeTranslator) TranslateBatch(_ context.Context, texts []string, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("upstream unavailable")
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.respond != nil {
		return f.respond(texts), nil
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "EN:" + text
	}
	return out, nil
}

func newTranslationServiceForTest(store *fakeTranslationStore, hot *fakeHotTier, client *fakeTranslator) *TranslationService {
	opts := TranslationOptions{MaxRetries: 3, RetryDelay: time.Millisecond}
	// A nil *fakeHotTier must reach the service as a nil interface, not a
	// typed-nil wrapped in translationHotTier.
	var hotTier translationHotTier
	if hot != nil {
		hotTier = hot
	}
	return NewTranslationService(store, hotTier, client, nil, opts, nil)
}

func TestTranslateDedupesAndCallsRemoteOnce(t *testing.T) {
	store := newFakeTranslationStore()
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题", "第二题", "第一题"}, "数据结构")
	assert.Equal(t, "EN:第一题", result["第一题"])
	assert.Equal(t, "EN:第二题", result["第二题"])
	assert.Equal(t, 1, client.calls)
	require.Len(t, client.batches, 1)
	assert.Equal(t, []string{"第一题", "第二题"}, client.batches[0])
}

func TestTranslateServesCachedWithoutRemote(t *testing.T) {
	store := newFakeTranslationStore()
	store.data["第一题"] = "Problem 1"
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "Problem 1", result["第一题"])
	assert.Equal(t, 0, client.calls)
}

func TestTranslatePartialCacheSendsOnlyMisses(t *testing.T) {
	store := newFakeTranslationStore()
	store.data["第一题"] = "Problem 1"
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题", "第二题"}, "")
	assert.Equal(t, "Problem 1", result["第一题"])
	assert.Equal(t, "EN:第二题", result["第二题"])
	require.Len(t, client.batches, 1)
	assert.Equal(t, []string{"第二题"}, client.batches[0])
}

func TestTranslateRetriesThenSucceeds(t *testing.T) {
	store := newFakeTranslationStore()
	client := &fakeTranslator{failures: 2}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "EN:第一题", result["第一题"])
	assert.Equal(t, 3, client.calls)
}

func TestTranslateDegradesToIdentityAndNeverCachesIt(t *testing.T) {
	store := newFakeTranslationStore()
	client := &fakeTranslator{failures: 10}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "第一题", result["第一题"])
	assert.Equal(t, 3, client.calls, "retries are bounded")
	assert.Equal(t, 0, store.upserts, "identity results are not persisted")

	// The text stays retryable: once the upstream recovers, the next request
	// translates it.
	client.failures = 0
	result = svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "EN:第一题", result["第一题"])
}

func TestTranslateCountMismatchDegradesWithoutRetry(t *testing.T) {
	store := newFakeTranslationStore()
	client := &fakeTranslator{batchErr: fmt.Errorf("%w: got 1, want 2", translator.ErrCountMismatch)}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题", "第二题"}, "")
	assert.Equal(t, "第一题", result["第一题"])
	assert.Equal(t, "第二题", result["第二题"])
	assert.Equal(t, 1, client.calls, "a completed-but-wrong response is not retried")
	assert.Equal(t, 0, store.upserts)
}

func TestTranslatePersistsRemoteResults(t *testing.T) {
	store := newFakeTranslationStore()
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, nil, client)

	svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "EN:第一题", store.data["第一题"])

	// Second call is served entirely from the durable tier.
	svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, 1, client.calls)
}

func TestTranslateHotTierHitSkipsPostgres(t *testing.T) {
	store := newFakeTranslationStore()
	store.getErr = errors.New("postgres should not be touched")
	hot := newFakeHotTier()
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, hot, client)

	hot.data[svc.hotKey("第一题")] = "Problem 1"

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "Problem 1", result["第一题"])
	assert.Equal(t, 0, client.calls)
}

func TestTranslateHotTierErrorFallsThrough(t *testing.T) {
	store := newFakeTranslationStore()
	store.data["第一题"] = "Problem 1"
	hot := newFakeHotTier()
	hot.getErr = errors.New("redis down")
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, hot, client)

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "Problem 1", result["第一题"])
	assert.Equal(t, 0, client.calls)
}

func TestTranslateStoreErrorDegradesToRemote(t *testing.T) {
	store := newFakeTranslationStore()
	store.getErr = errors.New("connection refused")
	client := &fakeTranslator{}
	svc := newTranslationServiceForTest(store, nil, client)

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "EN:第一题", result["第一题"])
	assert.Equal(t, 1, client.calls)
}

func TestLookupCachedBackfillsHotTier(t *testing.T) {
	store := newFakeTranslationStore()
	store.data["第一题"] = "Problem 1"
	hot := newFakeHotTier()
	svc := newTranslationServiceForTest(store, hot, &fakeTranslator{})

	translated, err := svc.LookupCached(context.Background(), "第一题")
	require.NoError(t, err)
	assert.Equal(t, "Problem 1", translated)
	assert.Equal(t, "Problem 1", hot.data[svc.hotKey("第一题")])
}

func TestLookupCachedMiss(t *testing.T) {
	svc := newTranslationServiceForTest(newFakeTranslationStore(), nil, &fakeTranslator{})
	_, err := svc.LookupCached(context.Background(), "没有的")
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestTranslateNoClientDegradesToIdentity(t *testing.T) {
	store := newFakeTranslationStore()
	svc := NewTranslationService(store, nil, nil, nil, TranslationOptions{MaxRetries: 1, RetryDelay: time.Millisecond}, nil)

	result := svc.Translate(context.Background(), []string{"第一题"}, "")
	assert.Equal(t, "第一题", result["第一题"])
}

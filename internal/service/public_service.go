package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	"github.com/lnjng/courselog-api/internal/translit"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type publicCourseRepository interface {
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Course, error)
}

type publicLogItemRepository interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.LogItem, error)
}

type publicProblemRepository interface {
	ListByCourse(ctx context.Context, courseID int64, filter *models.StudyFilter) ([]models.ProblemWithCategories, error)
}

type publicTranslations interface {
	LookupCached(ctx context.Context, text string) (string, error)
}

type publicPayloadCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// PublicConfig carries the public view policy knobs.
type PublicConfig struct {
	FirstPartyDomain  string
	LectureLinkDomain string
	CacheTTL          time.Duration
}

// PublicCourse is the course header shown on public pages.
type PublicCourse struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// PublicCalendarPayload is the full response for the public calendar view.
type PublicCalendarPayload struct {
	Course      PublicCourse           `json:"course"`
	Weeks       []models.CalendarWeek  `json:"weeks"`
	Unscheduled []models.PublicLogItem `json:"unscheduled"`
	ActiveKinds []string               `json:"active_kinds"`
	Lang        string                 `json:"lang"`
}

// PublicProblemsPayload is the full response for the public problem bank.
type PublicProblemsPayload struct {
	Course        PublicCourse           `json:"course"`
	Problems      []models.PublicProblem `json:"problems"`
	AllCategories []string               `json:"all_categories"`
	Lang          string                 `json:"lang"`
}

// PublicService serves the read-only course views reachable by slug. English
// projections run titles through the transliterator and everything else
// through the translation cache; remote translation never happens on this
// path. Whole payloads are cached in Redis and invalidated on writes.
type PublicService struct {
	courses      publicCourseRepository
	logItems     publicLogItemRepository
	problems     publicProblemRepository
	translations publicTranslations
	calendar     *CalendarService
	cache        publicPayloadCache
	config       PublicConfig
	logger       *zap.Logger
}

// NewPublicService constructs the service. translations and cache may be
// nil.
func NewPublicService(courses publicCourseRepository, logItems publicLogItemRepository, problems publicProblemRepository, translations publicTranslations, calendar *CalendarService, cache publicPayloadCache, config PublicConfig, logger *zap.Logger) *PublicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calendar == nil {
		calendar = NewCalendarService(logger)
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	return &PublicService{
		courses:      courses,
		logItems:     logItems,
		problems:     problems,
		translations: translations,
		calendar:     calendar,
		cache:        cache,
		config:       config,
		logger:       logger,
	}
}

// Calendar builds the public calendar for a published course. lang is "en"
// or "zh"; English translates titles and descriptions, Chinese passes
// everything through verbatim.
func (s *PublicService) Calendar(ctx context.Context, slug, lang string) (*PublicCalendarPayload, error) {
	cacheKey := fmt.Sprintf("public:%s:calendar:%s", slug, lang)
	var cached PublicCalendarPayload
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	course, err := s.findCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	items, err := s.logItems.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log items")
	}

	translateTitles := lang != "zh"
	var translations map[string]string
	if translateTitles {
		texts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Description != nil && *item.Description != "" {
				texts = append(texts, *item.Description)
			}
		}
		translations = s.lookupAll(ctx, texts)
	}

	cal := s.calendar.BuildCalendar(items, CalendarOptions{
		ShowLectureLinks:  course.ShowLectureLinks,
		TranslateTitles:   translateTitles,
		Translations:      translations,
		FirstPartyDomain:  s.config.FirstPartyDomain,
		LectureLinkDomain: s.config.LectureLinkDomain,
	})

	payload := &PublicCalendarPayload{
		Course:      toPublicCourse(course),
		Weeks:       cal.Weeks,
		Unscheduled: cal.Unscheduled,
		ActiveKinds: cal.ActiveKinds,
		Lang:        langLabel(lang),
	}
	s.cacheSet(ctx, cacheKey, payload)
	return payload, nil
}

// Problems builds the public problem bank for a published course.
func (s *PublicService) Problems(ctx context.Context, slug, lang string) (*PublicProblemsPayload, error) {
	cacheKey := fmt.Sprintf("public:%s:problems:%s", slug, lang)
	var cached PublicProblemsPayload
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	course, err := s.findCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	raw, err := s.problems.ListByCourse(ctx, course.ID, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load problems")
	}

	translate := lang != "zh"
	var lookup map[string]string
	if translate {
		var texts []string
		for _, p := range raw {
			if p.Notes != nil && *p.Notes != "" {
				texts = append(texts, *p.Notes)
			}
			if p.CategoryNames != nil {
				for _, name := range splitAggregatedNames(*p.CategoryNames) {
					texts = append(texts, name)
				}
			}
			if p.SourceTitle != "" {
				texts = append(texts, p.SourceTitle)
			}
		}
		lookup = s.lookupAll(ctx, texts)
	}

	categorySet := map[string]struct{}{}
	problems := make([]models.PublicProblem, 0, len(raw))
	for _, p := range raw {
		problems = append(problems, s.toPublicProblem(p, translate, lookup, categorySet))
	}

	allCategories := make([]string, 0, len(categorySet))
	for name := range categorySet {
		allCategories = append(allCategories, name)
	}
	sort.Strings(allCategories)

	payload := &PublicProblemsPayload{
		Course:        toPublicCourse(course),
		Problems:      problems,
		AllCategories: allCategories,
		Lang:          langLabel(lang),
	}
	s.cacheSet(ctx, cacheKey, payload)
	return payload, nil
}

func (s *PublicService) toPublicProblem(p models.ProblemWithCategories, translate bool, lookup map[string]string, categorySet map[string]struct{}) models.PublicProblem {
	var notes *string
	if p.Notes != nil && *p.Notes != "" {
		text := *p.Notes
		if translate {
			if t, ok := lookup[text]; ok {
				text = t
			}
		}
		notes = &text
	}

	var categoryNames *string
	if p.CategoryNames != nil {
		names := splitAggregatedNames(*p.CategoryNames)
		for i, name := range names {
			if translate {
				if t, ok := lookup[name]; ok {
					name = t
				}
			}
			names[i] = name
			categorySet[name] = struct{}{}
		}
		joined := strings.Join(names, ", ")
		categoryNames = &joined
	}

	sourceTitle := p.SourceTitle
	if translate && sourceTitle != "" {
		translated := translit.Transliterate(p.SourceKind, sourceTitle)
		if translated == sourceTitle {
			// The rules did not apply; fall back to the translation cache.
			if t, ok := lookup[sourceTitle]; ok {
				translated = t
			}
		}
		sourceTitle = translated
	}

	// Public solution links are restricted to first-party notes.
	var solutionLink *string
	if p.SolutionLink != nil && s.config.FirstPartyDomain != "" &&
		strings.Contains(*p.SolutionLink, s.config.FirstPartyDomain) {
		solutionLink = p.SolutionLink
	}

	return models.PublicProblem{
		ID:            p.ID,
		ImageURL:      p.ImageURL,
		Notes:         notes,
		CategoryNames: categoryNames,
		SourceKind:    p.SourceKind,
		SourceTitle:   sourceTitle,
		SolutionLink:  solutionLink,
	}
}

func (s *PublicService) findCourse(ctx context.Context, slug string) (*models.Course, error) {
	course, err := s.courses.FindPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// lookupAll resolves each text against the translation cache, skipping texts
// with no cached translation.
func (s *PublicService) lookupAll(ctx context.Context, texts []string) map[string]string {
	result := make(map[string]string, len(texts))
	if s.translations == nil {
		return result
	}
	for _, text := range texts {
		if _, seen := result[text]; seen {
			continue
		}
		translated, err := s.translations.LookupCached(ctx, text)
		if err != nil {
			if !errors.Is(err, appErrors.ErrCacheMiss) {
				s.logger.Warn("translation lookup failed", zap.Error(err))
			}
			continue
		}
		result[text] = translated
	}
	return result
}

func (s *PublicService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("public payload cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *PublicService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.config.CacheTTL); err != nil {
		s.logger.Warn("public payload cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func toPublicCourse(course *models.Course) PublicCourse {
	slug := ""
	if course.PublicSlug != nil {
		slug = *course.PublicSlug
	}
	return PublicCourse{Code: course.Code, Title: course.Title, Slug: slug}
}

func langLabel(lang string) string {
	if lang == "zh" {
		return "zh"
	}
	return "en"
}

// splitAggregatedNames splits the string_agg output back into trimmed names.
func splitAggregatedNames(aggregated string) []string {
	parts := strings.Split(aggregated, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

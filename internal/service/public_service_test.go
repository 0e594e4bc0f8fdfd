package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/models"
	appErrors "github.com/lnjng/courselog-api/pkg/errors"
)

type fakePublicCourses struct {
	course *models.Course
}

func (f *fakePublicCourses) FindPublishedBySlug(_ context.Context, slug string) (*models.Course, error) {
	if f.course == nil || f.course.PublicSlug == nil || *f.course.PublicSlug != slug {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

type fakePublicLogItems struct {
	items []models.LogItem
	calls int
}

func (f *fakePublicLogItems) ListByCourse(_ context.Context, _ int64) ([]models.LogItem, error) {
	f.calls++
	return f.items, nil
}

type fakePublicProblems struct {
	problems []models.ProblemWithCategories
}

func (f *fakePublicProblems) ListByCourse(_ context.Context, _ int64, _ *models.StudyFilter) ([]models.ProblemWithCategories, error) {
	return f.problems, nil
}

type fakeCachedTranslations struct {
	data map[string]string
}

func (f *fakeCachedTranslations) LookupCached(_ context.Context, text string) (string, error) {
	if translated, ok := f.data[text]; ok {
		return translated, nil
	}
	return "", appErrors.ErrCacheMiss
}

type fakePayloadCache struct {
	data map[string][]byte
	sets int
}

func (f *fakePayloadCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakePayloadCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[key] = raw
	f.sets++
	return nil
}

func publishedCourse() *models.Course {
	slug := "cs101"
	return &models.Course{
		ID:               7,
		SemesterID:       1,
		Code:             "CS101",
		Title:            "数据结构",
		IsPublished:      true,
		PublicSlug:       &slug,
		ShowLectureLinks: true,
	}
}

func newPublicServiceForTest(courses *fakePublicCourses, items *fakePublicLogItems, problems *fakePublicProblems, translations *fakeCachedTranslations, cache *fakePayloadCache) *PublicService {
	cfg := PublicConfig{FirstPartyDomain: "notes.lnjng.com", LectureLinkDomain: "drive.google.com", CacheTTL: time.Minute}
	var payloadCache publicPayloadCache
	if cache != nil {
		payloadCache = cache
	}
	return NewPublicService(courses, items, problems, translations, NewCalendarService(nil), payloadCache, cfg, nil)
}

func TestPublicCalendarUnknownSlug(t *testing.T) {
	svc := newPublicServiceForTest(&fakePublicCourses{}, &fakePublicLogItems{}, &fakePublicProblems{}, nil, nil)
	_, err := svc.Calendar(context.Background(), "nope", "en")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublicCalendarEnglishTranslatesTitlesAndDescriptions(t *testing.T) {
	desc := "本讲覆盖红黑树"
	items := &fakePublicLogItems{items: []models.LogItem{
		{ID: 1, CourseID: 7, Kind: models.KindLecture, Title: "第三讲", Description: &desc, Date: strPtrSvc("2024-09-02")},
	}}
	translations := &fakeCachedTranslations{data: map[string]string{desc: "Covers red-black trees"}}
	svc := newPublicServiceForTest(&fakePublicCourses{course: publishedCourse()}, items, &fakePublicProblems{}, translations, nil)

	payload, err := svc.Calendar(context.Background(), "cs101", "en")
	require.NoError(t, err)
	assert.Equal(t, "en", payload.Lang)
	require.Len(t, payload.Weeks, 1)
	got := payload.Weeks[0].ItemsByKind[0].Items[0]
	assert.Equal(t, "Lecture 3", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Covers red-black trees", *got.Description)
}

func TestPublicCalendarChineseIsVerbatim(t *testing.T) {
	desc := "本讲覆盖红黑树"
	items := &fakePublicLogItems{items: []models.LogItem{
		{ID: 1, CourseID: 7, Kind: models.KindLecture, Title: "第三讲", Description: &desc, Date: strPtrSvc("2024-09-02")},
	}}
	// Even with a cached translation available the zh view ignores it.
	translations := &fakeCachedTranslations{data: map[string]string{desc: "Covers red-black trees"}}
	svc := newPublicServiceForTest(&fakePublicCourses{course: publishedCourse()}, items, &fakePublicProblems{}, translations, nil)

	payload, err := svc.Calendar(context.Background(), "cs101", "zh")
	require.NoError(t, err)
	assert.Equal(t, "zh", payload.Lang)
	got := payload.Weeks[0].ItemsByKind[0].Items[0]
	assert.Equal(t, "第三讲", got.Title)
	assert.Equal(t, desc, *got.Description)
}

func TestPublicCalendarUsesPayloadCache(t *testing.T) {
	items := &fakePublicLogItems{items: []models.LogItem{
		{ID: 1, CourseID: 7, Kind: models.KindLecture, Title: "第一讲", Date: strPtrSvc("2024-09-02")},
	}}
	cache := &fakePayloadCache{}
	svc := newPublicServiceForTest(&fakePublicCourses{course: publishedCourse()}, items, &fakePublicProblems{}, nil, cache)

	_, err := svc.Calendar(context.Background(), "cs101", "en")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	payload, err := svc.Calendar(context.Background(), "cs101", "en")
	require.NoError(t, err)
	assert.Equal(t, 1, items.calls, "second read is served from cache")
	assert.Len(t, payload.Weeks, 1)
}

func TestPublicProblemsTranslationRules(t *testing.T) {
	notes := "注意边界条件"
	cats := "递归, 图论"
	link := "https://notes.lnjng.com/cs101/sol1"
	external := "https://example.com/sol2"
	problems := &fakePublicProblems{problems: []models.ProblemWithCategories{
		{ID: 1, Description: "p1", Notes: &notes, CategoryNames: &cats, SourceKind: models.KindHomework, SourceTitle: "作业一", SolutionLink: &link},
		{ID: 2, Description: "p2", SourceKind: "Exam", SourceTitle: "期中复习", SolutionLink: &external},
	}}
	translations := &fakeCachedTranslations{data: map[string]string{
		notes:  "Watch the boundary conditions",
		"递归":   "Recursion",
		"图论":   "Graph Theory",
		"期中复习": "Midterm Review",
	}}
	svc := newPublicServiceForTest(&fakePublicCourses{course: publishedCourse()}, &fakePublicLogItems{}, problems, translations, nil)

	payload, err := svc.Problems(context.Background(), "cs101", "en")
	require.NoError(t, err)
	require.Len(t, payload.Problems, 2)

	first := payload.Problems[0]
	assert.Equal(t, "Watch the boundary conditions", *first.Notes)
	// Same separator the repository uses when it aggregates category names.
	assert.Equal(t, "Recursion, Graph Theory", *first.CategoryNames)
	// The title canonicalizes by rule, so the cache is not consulted.
	assert.Equal(t, "Homework 1", first.SourceTitle)
	require.NotNil(t, first.SolutionLink)

	second := payload.Problems[1]
	// No rule applies, so the cached translation wins.
	assert.Equal(t, "Midterm Review", second.SourceTitle)
	assert.Nil(t, second.SolutionLink, "third-party solution links stay hidden")

	assert.Equal(t, []string{"Graph Theory", "Recursion"}, payload.AllCategories)
}

func TestPublicProblemsChineseKeepsOriginals(t *testing.T) {
	cats := "递归"
	problems := &fakePublicProblems{problems: []models.ProblemWithCategories{
		{ID: 1, Description: "p1", CategoryNames: &cats, SourceKind: models.KindHomework, SourceTitle: "作业一"},
	}}
	svc := newPublicServiceForTest(&fakePublicCourses{course: publishedCourse()}, &fakePublicLogItems{}, problems, nil, nil)

	payload, err := svc.Problems(context.Background(), "cs101", "zh")
	require.NoError(t, err)
	assert.Equal(t, "作业一", payload.Problems[0].SourceTitle)
	assert.Equal(t, []string{"递归"}, payload.AllCategories)
}

func strPtrSvc(value string) *string {
	return &value
}

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/models"
)

type fakeCourseSource struct {
	course *models.Course
}

func (f *fakeCourseSource) GetByID(_ context.Context, id int64) (*models.Course, error) {
	if f.course == nil || f.course.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

type fakeCategorySource struct {
	categories []models.Category
}

func (f *fakeCategorySource) ListByCourse(_ context.Context, _ int64) ([]models.Category, error) {
	return f.categories, nil
}

type fakeExamSource struct {
	exams []models.Exam
}

func (f *fakeExamSource) ListByCourse(_ context.Context, _ int64) ([]models.Exam, error) {
	return f.exams, nil
}

type recordingTranslator struct {
	texts   []string
	context string
}

func (r *recordingTranslator) Translate(_ context.Context, texts []string, courseContext string) map[string]string {
	r.texts = append([]string(nil), texts...)
	r.context = courseContext
	result := make(map[string]string, len(texts))
	for _, text := range texts {
		result[text] = "EN:" + text
	}
	return result
}

func TestCourseTranslationRunCollectsAllTexts(t *testing.T) {
	desc := "红黑树与AVL"
	notes := "注意旋转方向"
	course := &models.Course{ID: 7, Code: "CS101", Title: "数据结构"}
	logItems := &fakePublicLogItems{items: []models.LogItem{
		{ID: 1, CourseID: 7, Kind: models.KindLecture, Title: "第一讲", Description: &desc},
		{ID: 2, CourseID: 7, Kind: models.KindQuiz, Title: "测验一"},
	}}
	categories := &fakeCategorySource{categories: []models.Category{{ID: 1, CourseID: 7, Name: "递归"}}}
	problems := &fakePublicProblems{problems: []models.ProblemWithCategories{
		{ID: 1, Description: "p1", Notes: &notes, SourceKind: models.KindHomework, SourceTitle: "作业一"},
	}}
	exams := &fakeExamSource{exams: []models.Exam{{ID: 3, CourseID: 7, Title: "2023 期中"}}}
	translator := &recordingTranslator{}

	svc := NewCourseTranslationService(&fakeCourseSource{course: course}, logItems, categories, problems, exams, translator, nil)

	count, err := svc.Run(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, []string{desc, "递归", notes, "2023 期中"}, translator.texts)
	assert.Equal(t, "CS101 数据结构", translator.context)
}

func TestCourseTranslationRunEmptyCourse(t *testing.T) {
	course := &models.Course{ID: 7, Code: "CS101", Title: "数据结构"}
	translator := &recordingTranslator{}
	svc := NewCourseTranslationService(&fakeCourseSource{course: course}, &fakePublicLogItems{}, &fakeCategorySource{}, &fakePublicProblems{}, &fakeExamSource{}, translator, nil)

	count, err := svc.Run(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, translator.texts)
}

func TestCourseTranslationEnqueueUnknownCourse(t *testing.T) {
	svc := NewCourseTranslationService(&fakeCourseSource{}, &fakePublicLogItems{}, &fakeCategorySource{}, &fakePublicProblems{}, &fakeExamSource{}, &recordingTranslator{}, nil)
	_, err := svc.Enqueue(context.Background(), 404)
	require.Error(t, err)
}

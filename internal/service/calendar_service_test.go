package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnjng/courselog-api/internal/models"
)

func publicOpts() CalendarOptions {
	return CalendarOptions{
		ShowLectureLinks:  true,
		TranslateTitles:   true,
		FirstPartyDomain:  "notes.lnjng.com",
		LectureLinkDomain: "drive.google.com",
	}
}

func item(id int64, kind, title, date string) models.LogItem {
	li := models.LogItem{ID: id, CourseID: 1, Kind: kind, Title: title}
	if date != "" {
		li.Date = &date
	}
	return li
}

func TestBuildCalendarEmpty(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar(nil, publicOpts())
	assert.Empty(t, cal.Weeks)
	assert.Empty(t, cal.Unscheduled)
	assert.Empty(t, cal.ActiveKinds)
}

func TestBuildCalendarWeekOneStartsOnMondayOfEarliestDate(t *testing.T) {
	svc := NewCalendarService(nil)
	// 2024-09-04 is a Wednesday; its Monday is 2024-09-02.
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第一讲", "2024-09-04"),
	}, publicOpts())

	require.Len(t, cal.Weeks, 1)
	assert.Equal(t, 1, cal.Weeks[0].WeekNumber)
	assert.Equal(t, "Sep 02", cal.Weeks[0].StartDate)
	assert.Equal(t, "Sep 08", cal.Weeks[0].EndDate)
}

func TestBuildCalendarWeeksAreContiguous(t *testing.T) {
	svc := NewCalendarService(nil)
	// Items three weeks apart: the empty middle weeks still appear.
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第一讲", "2024-09-02"),
		item(2, models.KindLecture, "第二讲", "2024-09-23"),
	}, publicOpts())

	require.Len(t, cal.Weeks, 4)
	for i, week := range cal.Weeks {
		assert.Equal(t, i+1, week.WeekNumber)
	}
	// Week 2 exists but its lecture column is empty.
	require.Len(t, cal.Weeks[1].ItemsByKind, 1)
	assert.Equal(t, models.KindLecture, cal.Weeks[1].ItemsByKind[0].Kind)
	assert.Empty(t, cal.Weeks[1].ItemsByKind[0].Items)
	assert.Len(t, cal.Weeks[3].ItemsByKind[0].Items, 1)
}

func TestBuildCalendarSundayStaysInItsWeek(t *testing.T) {
	svc := NewCalendarService(nil)
	// Monday and the following Sunday share a week; the next Monday opens
	// week two.
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第一讲", "2024-09-02"),
		item(2, models.KindHomework, "作业一", "2024-09-08"),
		item(3, models.KindLecture, "第二讲", "2024-09-09"),
	}, publicOpts())

	require.Len(t, cal.Weeks, 2)
	assert.Len(t, cal.Weeks[0].ItemsByKind, 2)
}

func TestBuildCalendarActiveKindsFollowFixedOrder(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindQuiz, "测验一", "2024-09-02"),
		item(2, models.KindLecture, "第一讲", "2024-09-03"),
		item(3, models.KindHomework, "作业一", "2024-09-04"),
	}, publicOpts())

	assert.Equal(t, []string{models.KindLecture, models.KindHomework, models.KindQuiz}, cal.ActiveKinds)
	// Each week lists columns in the same order.
	require.Len(t, cal.Weeks, 1)
	kinds := make([]string, 0, len(cal.Weeks[0].ItemsByKind))
	for _, ki := range cal.Weeks[0].ItemsByKind {
		kinds = append(kinds, ki.Kind)
	}
	assert.Equal(t, cal.ActiveKinds, kinds)
}

func TestBuildCalendarSortsItemsByDateWithinWeek(t *testing.T) {
	svc := NewCalendarService(nil)
	// Wednesday arrives before Monday of the same week; the bucket must come
	// out date-ordered regardless.
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第二讲", "2024-09-04"),
		item(2, models.KindLecture, "第一讲", "2024-09-02"),
	}, publicOpts())

	require.Len(t, cal.Weeks, 1)
	items := cal.Weeks[0].ItemsByKind[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "Lecture 1", items[0].Title)
	assert.Equal(t, "Lecture 2", items[1].Title)
}

func TestBuildCalendarSortIsStableForSameDay(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindHomework, "作业一", "2024-09-03"),
		item(2, models.KindHomework, "作业二", "2024-09-03"),
	}, publicOpts())

	items := cal.Weeks[0].ItemsByKind[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)
}

func TestBuildCalendarFinalAndProjectGetNoColumn(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第一讲", "2024-09-02"),
		item(2, models.KindFinal, "期末考试", "2024-09-03"),
		item(3, models.KindProject, "课程项目", "2024-09-04"),
	}, publicOpts())

	assert.Equal(t, []string{models.KindLecture}, cal.ActiveKinds)
	require.Len(t, cal.Weeks, 1)
	require.Len(t, cal.Weeks[0].ItemsByKind, 1)
	assert.Equal(t, models.KindLecture, cal.Weeks[0].ItemsByKind[0].Kind)
	assert.Len(t, cal.Weeks[0].ItemsByKind[0].Items, 1)
}

func TestBuildCalendarUndatedItemsGoToUnscheduled(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第一讲", "2024-09-02"),
		item(2, models.KindOther, "课程说明", ""),
	}, publicOpts())

	require.Len(t, cal.Unscheduled, 1)
	assert.Equal(t, int64(2), cal.Unscheduled[0].ID)
	// Unscheduled items do not create calendar columns.
	assert.Equal(t, []string{models.KindLecture}, cal.ActiveKinds)
}

func TestBuildCalendarDropsUnparseableDates(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第一讲", "2024-09-02"),
		item(2, models.KindLecture, "第二讲", "not-a-date"),
	}, publicOpts())

	require.Len(t, cal.Weeks, 1)
	assert.Len(t, cal.Weeks[0].ItemsByKind[0].Items, 1)
	assert.Empty(t, cal.Unscheduled)
}

func TestBuildCalendarTranslatesTitlesInEnglishProjection(t *testing.T) {
	svc := NewCalendarService(nil)
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第三讲", "2024-09-02"),
	}, publicOpts())

	assert.Equal(t, "Lecture 3", cal.Weeks[0].ItemsByKind[0].Items[0].Title)
}

func TestBuildCalendarKeepsTitlesVerbatimInChineseProjection(t *testing.T) {
	svc := NewCalendarService(nil)
	opts := publicOpts()
	opts.TranslateTitles = false
	cal := svc.BuildCalendar([]models.LogItem{
		item(1, models.KindLecture, "第三讲", "2024-09-02"),
	}, opts)

	assert.Equal(t, "第三讲", cal.Weeks[0].ItemsByKind[0].Items[0].Title)
}

func TestBuildCalendarDescriptionUsesCachedTranslation(t *testing.T) {
	svc := NewCalendarService(nil)
	desc := "本讲覆盖红黑树"
	li := item(1, models.KindLecture, "第一讲", "2024-09-02")
	li.Description = &desc

	opts := publicOpts()
	opts.Translations = map[string]string{desc: "Covers red-black trees"}
	cal := svc.BuildCalendar([]models.LogItem{li}, opts)
	require.NotNil(t, cal.Weeks[0].ItemsByKind[0].Items[0].Description)
	assert.Equal(t, "Covers red-black trees", *cal.Weeks[0].ItemsByKind[0].Items[0].Description)

	// Without a cached translation the description passes through verbatim.
	opts.Translations = nil
	cal = svc.BuildCalendar([]models.LogItem{li}, opts)
	assert.Equal(t, desc, *cal.Weeks[0].ItemsByKind[0].Items[0].Description)
}

func TestFilterPublicLinkPolicy(t *testing.T) {
	firstParty := "https://notes.lnjng.com/cs101/lec1"
	slides := "https://drive.google.com/file/d/abc"
	other := "https://example.com/solutions.pdf"

	cases := []struct {
		name    string
		link    string
		kind    string
		show    bool
		visible bool
	}{
		{"first-party always visible", firstParty, models.KindHomework, false, true},
		{"lecture slides visible when enabled", slides, models.KindLecture, true, true},
		{"lecture slides hidden when disabled", slides, models.KindLecture, false, false},
		{"slides on non-lecture item hidden", slides, models.KindHomework, true, false},
		{"third-party links never visible", other, models.KindLecture, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := publicOpts()
			opts.ShowLectureLinks = tc.show
			got := filterPublicLink(&tc.link, tc.kind, opts)
			if tc.visible {
				require.NotNil(t, got)
				assert.Equal(t, tc.link, *got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

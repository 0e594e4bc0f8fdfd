package service

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lnjng/courselog-api/internal/models"
	"github.com/lnjng/courselog-api/internal/translit"
)

// allKinds is the fixed column order of the public calendar. Final and
// Project items are logged but do not get calendar columns; they surface as
// whatever kind the title canonicalizes to, or not at all.
var allKinds = []string{
	models.KindLecture,
	models.KindDiscussion,
	models.KindLab,
	models.KindHomework,
	models.KindQuiz,
	models.KindMidterm,
	models.KindOther,
}

// Calendar is the full public calendar payload for one course.
type Calendar struct {
	Weeks       []models.CalendarWeek  `json:"weeks"`
	Unscheduled []models.PublicLogItem `json:"unscheduled"`
	ActiveKinds []string               `json:"active_kinds"`
}

// CalendarOptions control how log items project into public items.
type CalendarOptions struct {
	// ShowLectureLinks permits lecture slide links in the public view.
	ShowLectureLinks bool
	// TranslateTitles switches the English projection on: titles go through
	// the rule-based transliterator and descriptions through the supplied
	// translation map. Off, everything passes through verbatim.
	TranslateTitles bool
	// Translations maps source descriptions to cached translations. Texts
	// absent from the map render verbatim.
	Translations map[string]string
	// FirstPartyDomain marks links that are always public.
	FirstPartyDomain string
	// LectureLinkDomain marks lecture slide links gated by ShowLectureLinks.
	LectureLinkDomain string
}

// CalendarService folds a course's log items into Monday-to-Sunday week
// buckets. The fold is pure: same items and options in, same calendar out.
type CalendarService struct {
	logger *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{logger: logger}
}

// BuildCalendar buckets the items by calendar week. Week 1 starts on the
// Monday of the earliest parseable date; every week through the last dated
// item appears even when empty. Undated items go to Unscheduled; items whose
// date fails to parse are dropped with a log line.
func (s *CalendarService) BuildCalendar(items []models.LogItem, opts CalendarOptions) Calendar {
	var (
		unscheduled []models.PublicLogItem
		dated       []datedItem
	)
	for i := range items {
		item := &items[i]
		if item.Date == nil || *item.Date == "" {
			unscheduled = append(unscheduled, s.toPublic(item, opts))
			continue
		}
		date, err := time.Parse("2006-01-02", *item.Date)
		if err != nil {
			s.logger.Warn("log item has unparseable date, dropping from calendar",
				zap.Int64("log_item_id", item.ID), zap.String("date", *item.Date))
			continue
		}
		dated = append(dated, datedItem{item: item, date: date})
	}

	if unscheduled == nil {
		unscheduled = []models.PublicLogItem{}
	}
	if len(dated) == 0 {
		return Calendar{Weeks: []models.CalendarWeek{}, Unscheduled: unscheduled, ActiveKinds: []string{}}
	}

	epochMonday := dated[0].date
	for _, d := range dated[1:] {
		if d.date.Before(epochMonday) {
			epochMonday = d.date
		}
	}
	epochMonday = mondayOf(epochMonday)

	// Callers usually hand items over date-ordered, but bucket order must not
	// depend on that. Stable, so same-day items keep their input order.
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].date.Before(dated[j].date) })

	type weekBucket map[string][]models.PublicLogItem
	buckets := map[int]weekBucket{}
	kindCounts := map[string]int{}
	maxWeek := 0

	for _, d := range dated {
		week := int(d.date.Sub(epochMonday).Hours()/24) / 7
		if week > maxWeek {
			maxWeek = week
		}
		public := s.toPublic(d.item, opts)
		kindCounts[public.Kind]++
		if buckets[week] == nil {
			buckets[week] = weekBucket{}
		}
		buckets[week][public.Kind] = append(buckets[week][public.Kind], public)
	}

	activeKinds := []string{}
	for _, kind := range allKinds {
		if kindCounts[kind] > 0 {
			activeKinds = append(activeKinds, kind)
		}
	}

	weeks := make([]models.CalendarWeek, 0, maxWeek+1)
	for week := 0; week <= maxWeek; week++ {
		monday := epochMonday.AddDate(0, 0, week*7)
		sunday := monday.AddDate(0, 0, 6)
		itemsByKind := make([]models.KindItems, 0, len(activeKinds))
		for _, kind := range activeKinds {
			kindItems := buckets[week][kind]
			if kindItems == nil {
				kindItems = []models.PublicLogItem{}
			}
			itemsByKind = append(itemsByKind, models.KindItems{Kind: kind, Items: kindItems})
		}
		weeks = append(weeks, models.CalendarWeek{
			WeekNumber:  week + 1,
			StartDate:   monday.Format("Jan 02"),
			EndDate:     sunday.Format("Jan 02"),
			ItemsByKind: itemsByKind,
		})
	}

	return Calendar{Weeks: weeks, Unscheduled: unscheduled, ActiveKinds: activeKinds}
}

type datedItem struct {
	item *models.LogItem
	date time.Time
}

func mondayOf(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

func (s *CalendarService) toPublic(item *models.LogItem, opts CalendarOptions) models.PublicLogItem {
	title := item.Title
	if opts.TranslateTitles {
		title = translit.Transliterate(item.Kind, item.Title)
	}

	var description *string
	if item.Description != nil && *item.Description != "" {
		text := *item.Description
		if opts.TranslateTitles {
			if translated, ok := opts.Translations[text]; ok {
				text = translated
			}
		}
		description = &text
	}

	return models.PublicLogItem{
		ID:          item.ID,
		Kind:        item.Kind,
		Title:       title,
		Description: description,
		Date:        item.Date,
		Link:        filterPublicLink(item.Link, item.Kind, opts),
	}
}

// filterPublicLink decides whether an item's link is visible publicly:
// first-party links always are, lecture slide links only when the course
// allows them, anything else never.
func filterPublicLink(link *string, kind string, opts CalendarOptions) *string {
	if link == nil {
		return nil
	}
	url := *link
	if opts.FirstPartyDomain != "" && strings.Contains(url, opts.FirstPartyDomain) {
		return &url
	}
	if opts.LectureLinkDomain != "" && strings.Contains(url, opts.LectureLinkDomain) &&
		kind == models.KindLecture && opts.ShowLectureLinks {
		return &url
	}
	return nil
}

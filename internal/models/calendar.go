package models

// PublicLogItem is the render-only projection of a LogItem for the public
// views: the title is canonicalized or translated, the description replaced by
// its cached translation, and the link filtered by the visibility policy.
// Constructed fresh per request, never persisted.
type PublicLogItem struct {
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// KindItems pairs a kind column with its items for one calendar week.
type KindItems struct {
	Kind  string          `json:"kind"`
	Items []PublicLogItem `json:"items"`
}

// CalendarWeek is one Monday-to-Sunday bucket of the public calendar. Weeks
// are contiguous from 1; a week with no items still appears with an empty
// list per active kind.
type CalendarWeek struct {
	WeekNumber  int         `json:"week_number"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	ItemsByKind []KindItems `json:"items_by_kind"`
}

// PublicProblem is the render-only projection of a problem for the public
// problem bank.
type PublicProblem struct {
	ID            int64   `json:"id"`
	ImageURL      *string `json:"image_url,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	CategoryNames *string `json:"category_names,omitempty"`
	SourceKind    string  `json:"source_kind"`
	SourceTitle   string  `json:"source_title"`
	SolutionLink  *string `json:"solution_link,omitempty"`
}

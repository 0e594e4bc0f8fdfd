package models

// Problem is a screenshot of a problem attached to either a log item or an
// exam, with notes and category tags.
type Problem struct {
	ID           int64   `db:"id" json:"id"`
	LogItemID    *int64  `db:"log_item_id" json:"log_item_id,omitempty"`
	ExamID       *int64  `db:"exam_id" json:"exam_id,omitempty"`
	Description  string  `db:"description" json:"description"`
	Notes        *string `db:"notes" json:"notes,omitempty"`
	ImageURL     *string `db:"image_url" json:"image_url,omitempty"`
	SolutionLink *string `db:"solution_link" json:"solution_link,omitempty"`
	IsIncorrect  bool    `db:"is_incorrect" json:"is_incorrect"`
}

// ProblemWithCategories joins a problem with its aggregated category names and
// the kind/title of the log item or exam it came from.
type ProblemWithCategories struct {
	ID            int64   `db:"id" json:"id"`
	LogItemID     *int64  `db:"log_item_id" json:"log_item_id,omitempty"`
	ExamID        *int64  `db:"exam_id" json:"exam_id,omitempty"`
	Description   string  `db:"description" json:"description"`
	Notes         *string `db:"notes" json:"notes,omitempty"`
	ImageURL      *string `db:"image_url" json:"image_url,omitempty"`
	SolutionLink  *string `db:"solution_link" json:"solution_link,omitempty"`
	IsIncorrect   bool    `db:"is_incorrect" json:"is_incorrect"`
	CategoryNames *string `db:"category_names" json:"category_names,omitempty"`
	SourceKind    string  `db:"source_kind" json:"source_kind"`
	SourceTitle   string  `db:"source_title" json:"source_title"`
}

// StudyFilter narrows a course's problem bank. Kinds may include the
// pseudo-kind "Exam" to select exam-attached problems.
type StudyFilter struct {
	Kinds         []string
	CategoryIDs   []int64
	IncorrectOnly bool
}

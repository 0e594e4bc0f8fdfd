package models

// Log item kinds. Stored as plain strings; anything outside this set maps to
// "Other" when rendered.
const (
	KindLecture    = "Lecture"
	KindDiscussion = "Discussion"
	KindLab        = "Lab"
	KindHomework   = "Homework"
	KindQuiz       = "Quiz"
	KindMidterm    = "Midterm"
	KindFinal      = "Final"
	KindProject    = "Project"
	KindOther      = "Other"
)

// LogItem is a per-course log entry: a lecture, homework, quiz or similar.
// Date, when set, is an ISO YYYY-MM-DD string; unparseable dates are excluded
// from calendar bucketing.
type LogItem struct {
	ID          int64   `db:"id" json:"id"`
	CourseID    int64   `db:"course_id" json:"course_id"`
	Kind        string  `db:"kind" json:"kind"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description,omitempty"`
	Link        *string `db:"link" json:"link,omitempty"`
	Date        *string `db:"date" json:"date,omitempty"`
}

package models

// Exam is a past-exam record problems can be filed under, independent of the
// dated course log.
type Exam struct {
	ID       int64   `db:"id" json:"id"`
	CourseID int64   `db:"course_id" json:"course_id"`
	Title    string  `db:"title" json:"title"`
	Semester *string `db:"semester" json:"semester,omitempty"`
}

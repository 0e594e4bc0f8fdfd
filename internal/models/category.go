package models

// Category tags problems within a course. Names are unique per course and
// created on demand when attached to a problem.
type Category struct {
	ID       int64  `db:"id" json:"id"`
	CourseID int64  `db:"course_id" json:"course_id"`
	Name     string `db:"name" json:"name"`
}

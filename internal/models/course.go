package models

// Course is a tracked course within a semester. Publishing exposes the
// read-only calendar and problem bank under the public slug.
type Course struct {
	ID               int64   `db:"id" json:"id"`
	SemesterID       int64   `db:"semester_id" json:"semester_id"`
	Code             string  `db:"code" json:"code"`
	Title            string  `db:"title" json:"title"`
	IsPublished      bool    `db:"is_published" json:"is_published"`
	PublicSlug       *string `db:"public_slug" json:"public_slug,omitempty"`
	ShowLectureLinks bool    `db:"show_lecture_links" json:"show_lecture_links"`
}

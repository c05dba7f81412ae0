package models

// Student is the directory view of a learner used by recaps and exam listings.
type Student struct {
	ID        string  `db:"id" json:"id"`
	NIS       string  `db:"nis" json:"nis"`
	FullName  string  `db:"full_name" json:"full_name"`
	ClassID   *string `db:"class_id" json:"class_id,omitempty"`
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
	Active    bool    `db:"active" json:"active"`
}

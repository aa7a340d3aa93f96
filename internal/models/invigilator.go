package models

// Invigilator supervises a hall during a session.
type Invigilator struct {
	ID   string `db:"id" json:"id" yaml:"id,omitempty"`
	Name string `db:"name" json:"name" yaml:"name"`
	Dept string `db:"dept" json:"dept" yaml:"dept"`
}

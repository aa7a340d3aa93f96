package models

// Hall is an examination room. Capacity is a hard upper bound on occupants.
type Hall struct {
	ID       string `db:"id" json:"id" yaml:"id,omitempty"`
	HallNo   string `db:"hall_no" json:"hall_no" yaml:"hall_no"`
	Capacity int    `db:"capacity" json:"capacity" yaml:"capacity"`
	Block    string `db:"block" json:"block" yaml:"block"`
	// Columns overrides the derived row width of the seat grid when set.
	Columns *int `db:"columns" json:"columns,omitempty" yaml:"columns,omitempty"`
}

package models

// Student is a candidate registered to sit the exam of one subject.
type Student struct {
	ID          string `db:"id" json:"id" yaml:"id,omitempty"`
	RegNo       string `db:"reg_no" json:"reg_no" yaml:"reg_no"`
	Dept        string `db:"dept" json:"dept" yaml:"dept"`
	SubjectCode string `db:"subject_code" json:"subject_code" yaml:"subject_code"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	SubjectCodes []string
	Dept         string
	Search       string
	Page         int
	PageSize     int
}

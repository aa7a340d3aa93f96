package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Well known session labels. Other free-text labels are accepted as well.
const (
	SessionForenoon  = "FN"
	SessionAfternoon = "AN"
)

// ExamDateLayout is the wire and storage format of exam dates.
const ExamDateLayout = "2006-01-02"

// Reasons attached to unplaced students.
const (
	UnplacedCapacityShortage       = "CAPACITY_SHORTAGE"
	UnplacedAdjacencyUnsatisfiable = "ADJACENCY_UNSATISFIABLE"
)

// Warning codes attached to otherwise successful runs.
const (
	WarningInvigilatorShortage   = "INVIGILATOR_SHORTAGE"
	WarningDuplicateRegistration = "DUPLICATE_REGISTRATION"
)

// SeatAssignment places one student on one seat of a hall.
type SeatAssignment struct {
	HallNo      string `json:"hall_no" yaml:"hall_no"`
	SeatIndex   int    `json:"seat_index" yaml:"seat_index"`
	Row         int    `json:"row" yaml:"row"`
	Column      int    `json:"column" yaml:"column"`
	RegNo       string `json:"reg_no" yaml:"reg_no"`
	SubjectCode string `json:"subject_code" yaml:"subject_code"`
	Dept        string `json:"dept,omitempty" yaml:"dept,omitempty"`
}

// UnplacedStudent is a student the engine refused to seat, with the reason.
type UnplacedStudent struct {
	RegNo       string `json:"reg_no" yaml:"reg_no"`
	SubjectCode string `json:"subject_code" yaml:"subject_code"`
	Dept        string `json:"dept,omitempty" yaml:"dept,omitempty"`
	Reason      string `json:"reason" yaml:"reason"`
	Detail      string `json:"detail" yaml:"detail"`
}

// AllocationWarning is a non-fatal condition reported with a successful run.
type AllocationWarning struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	HallNo  string `json:"hall_no,omitempty" yaml:"hall_no,omitempty"`
	RegNo   string `json:"reg_no,omitempty" yaml:"reg_no,omitempty"`
}

// AllocationRecord is the persisted projection of one seat assignment.
type AllocationRecord struct {
	ID          string    `db:"id" json:"id"`
	RunID       string    `db:"run_id" json:"run_id"`
	SubjectCode string    `db:"subject_code" json:"subject_code"`
	HallNo      string    `db:"hall_no" json:"hall_no"`
	SeatIndex   int       `db:"seat_index" json:"seat_index"`
	RegNo       string    `db:"reg_no" json:"reg_no"`
	ExamDate    string    `db:"exam_date" json:"exam_date"`
	Session     string    `db:"session" json:"session"`
	Invigilator string    `db:"invigilator" json:"invigilator"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AllocationRecordFilter narrows allocation queries. Empty fields are ignored.
type AllocationRecordFilter struct {
	ExamDate string
	Session  string
	HallNo   string
	Page     int
	PageSize int
}

// AllocationRun is the audit row written together with a committed record set.
type AllocationRun struct {
	ID           string         `db:"id" json:"id"`
	ExamDate     string         `db:"exam_date" json:"exam_date"`
	Session      string         `db:"session" json:"session"`
	SubjectCodes string         `db:"subject_codes" json:"subject_codes"`
	TriggeredBy  string         `db:"triggered_by" json:"triggered_by"`
	RequestID    string         `db:"request_id" json:"request_id,omitempty"`
	Placed       int            `db:"placed" json:"placed"`
	HallsUsed    int            `db:"halls_used" json:"halls_used"`
	Warnings     types.JSONText `db:"warnings" json:"warnings"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

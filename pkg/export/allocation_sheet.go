package export

import (
	"strconv"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// AllocationSheetHeaders are the columns of the hall notice-board export.
var AllocationSheetHeaders = []string{"exam_date", "session", "hall_no", "seat_index", "reg_no", "subject_code", "invigilator"}

// AllocationSheet projects committed records onto AllocationSheetHeaders, preserving order.
func AllocationSheet(records []models.AllocationRecord) Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			"exam_date":    r.ExamDate,
			"session":      r.Session,
			"hall_no":      r.HallNo,
			"seat_index":   strconv.Itoa(r.SeatIndex),
			"reg_no":       r.RegNo,
			"subject_code": r.SubjectCode,
			"invigilator":  r.Invigilator,
		})
	}
	return Dataset{Headers: AllocationSheetHeaders, Rows: rows}
}

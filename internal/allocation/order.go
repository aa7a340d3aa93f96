package allocation

import (
	"sort"
	"unicode"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// NaturalLess compares strings treating digit runs as numbers, so "H2" sorts before "H10".
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na, nb := trimZeros(ra[si:i]), trimZeros(rb[sj:j])
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if string(na) != string(nb) {
				return string(na) < string(nb)
			}
			if i-si != j-sj {
				return i-si < j-sj
			}
			continue
		}
		if ra[i] != rb[j] {
			return ra[i] < rb[j]
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}

func trimZeros(digits []rune) []rune {
	for len(digits) > 1 && digits[0] == '0' {
		digits = digits[1:]
	}
	return digits
}

// SortHalls orders halls by natural hall number, then block.
func SortHalls(halls []models.Hall) {
	sort.SliceStable(halls, func(i, j int) bool {
		if halls[i].HallNo != halls[j].HallNo {
			return NaturalLess(halls[i].HallNo, halls[j].HallNo)
		}
		return halls[i].Block < halls[j].Block
	})
}

// SortStudents orders students by subject code, then registration number.
func SortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		if students[i].SubjectCode != students[j].SubjectCode {
			return students[i].SubjectCode < students[j].SubjectCode
		}
		return students[i].RegNo < students[j].RegNo
	})
}

// Interleave groups sorted students by subject and merges the groups round-robin in
// ascending subject order: S1, S2, S3, S1, S2, ...
func Interleave(sorted []models.Student) []models.Student {
	var (
		codes  []string
		groups = make(map[string][]models.Student)
	)
	for _, st := range sorted {
		if _, ok := groups[st.SubjectCode]; !ok {
			codes = append(codes, st.SubjectCode)
		}
		groups[st.SubjectCode] = append(groups[st.SubjectCode], st)
	}
	sort.Strings(codes)

	merged := make([]models.Student, 0, len(sorted))
	for round := 0; len(merged) < len(sorted); round++ {
		for _, code := range codes {
			if round < len(groups[code]) {
				merged = append(merged, groups[code][round])
			}
		}
	}
	return merged
}

package allocation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

func makeStudents(subject string, n int) []models.Student {
	out := make([]models.Student, n)
	for i := range out {
		out[i] = models.Student{
			RegNo:       fmt.Sprintf("%s-%03d", subject, i+1),
			Dept:        "CSE",
			SubjectCode: subject,
		}
	}
	return out
}

func hall(no string, capacity int) models.Hall {
	return models.Hall{HallNo: no, Capacity: capacity, Block: "A"}
}

// assertPlanValid checks capacity, adjacency and coverage of a result.
func assertPlanValid(t *testing.T, res Result, students []models.Student, halls []models.Hall, rowWidth int) {
	t.Helper()

	layouts := make(map[string]Layout, len(halls))
	for _, h := range halls {
		layouts[h.HallNo] = LayoutFor(h, rowWidth)
	}

	occupancy := make(map[string]int)
	bySeat := make(map[string]map[int]string)
	for _, a := range res.Assignments {
		occupancy[a.HallNo]++
		if bySeat[a.HallNo] == nil {
			bySeat[a.HallNo] = make(map[int]string)
		}
		_, taken := bySeat[a.HallNo][a.SeatIndex]
		require.False(t, taken, "seat %s/%d assigned twice", a.HallNo, a.SeatIndex)
		require.Less(t, a.SeatIndex, layouts[a.HallNo].Capacity)
		bySeat[a.HallNo][a.SeatIndex] = a.SubjectCode
	}

	for _, h := range halls {
		assert.LessOrEqual(t, occupancy[h.HallNo], h.Capacity, "hall %s over capacity", h.HallNo)
		layout := layouts[h.HallNo]
		for seat, subject := range bySeat[h.HallNo] {
			for _, n := range layout.Neighbors(seat) {
				if other, ok := bySeat[h.HallNo][n]; ok {
					assert.NotEqual(t, subject, other, "hall %s seats %d and %d share subject", h.HallNo, seat, n)
				}
			}
		}
	}

	seen := make(map[string]int)
	for _, a := range res.Assignments {
		seen[a.RegNo]++
	}
	for _, u := range res.Unplaced {
		assert.NotEmpty(t, u.Reason)
		seen[u.RegNo]++
	}
	require.Len(t, seen, len(students))
	for _, s := range students {
		assert.Equal(t, 1, seen[s.RegNo], "student %s", s.RegNo)
	}
}

func TestAllocateThreeSubjectsSquareHall(t *testing.T) {
	var students []models.Student
	for _, code := range []string{"S1", "S2", "S3"} {
		students = append(students, makeStudents(code, 3)...)
	}
	halls := []models.Hall{hall("H1", 9)}

	res := NewEngine(Options{}).Allocate(students, halls)

	assert.Len(t, res.Assignments, 9)
	assert.Empty(t, res.Unplaced)
	assertPlanValid(t, res, students, halls, 0)
	require.Len(t, res.Halls, 1)
	assert.Equal(t, 3, res.Halls[0].Width)
	assert.Equal(t, 9, res.Halls[0].Occupied)
}

func TestAllocateSingleSubjectLeavesNonAdjacentSubset(t *testing.T) {
	students := makeStudents("S1", 10)
	halls := []models.Hall{hall("H1", 10)}

	res := NewEngine(Options{}).Allocate(students, halls)

	seats := make([]int, 0, len(res.Assignments))
	for _, a := range res.Assignments {
		seats = append(seats, a.SeatIndex)
	}
	assert.Equal(t, []int{0, 2, 5, 7, 8}, seats)
	require.Len(t, res.Unplaced, 5)
	for _, u := range res.Unplaced {
		assert.Equal(t, models.UnplacedAdjacencyUnsatisfiable, u.Reason)
	}
	assertPlanValid(t, res, students, halls, 0)
}

func TestAllocateTwoHallsRespectsCapacity(t *testing.T) {
	students := append(makeStudents("S1", 2), makeStudents("S2", 2)...)
	students = append(students, makeStudents("S3", 1)...)
	halls := []models.Hall{hall("H2", 2), hall("H1", 3)}

	res := NewEngine(Options{}).Allocate(students, halls)

	assert.Empty(t, res.Unplaced)
	assertPlanValid(t, res, students, halls, 0)
	require.Len(t, res.Halls, 2)
	assert.Equal(t, "H1", res.Halls[0].HallNo)
	assert.Equal(t, 3, res.Halls[0].Occupied)
	assert.Equal(t, "H2", res.Halls[1].HallNo)
	assert.Equal(t, 2, res.Halls[1].Occupied)
	assert.Len(t, res.UsedHalls(), 2)
}

func TestAllocateCapacityShortage(t *testing.T) {
	var students []models.Student
	for i := 1; i <= 5; i++ {
		students = append(students, makeStudents(fmt.Sprintf("S%d", i), 1)...)
	}
	halls := []models.Hall{hall("H1", 3)}

	res := NewEngine(Options{}).Allocate(students, halls)

	assert.Len(t, res.Assignments, 3)
	require.Len(t, res.Unplaced, 2)
	assert.Equal(t, map[string]int{models.UnplacedCapacityShortage: 2}, res.Reasons())
	assert.Equal(t, "S4", res.Unplaced[0].SubjectCode)
	assert.Equal(t, "S5", res.Unplaced[1].SubjectCode)
	assertPlanValid(t, res, students, halls, 0)
}

func TestAllocateMixedShortageReasons(t *testing.T) {
	students := makeStudents("S1", 6)
	halls := []models.Hall{hall("H1", 4)}

	res := NewEngine(Options{}).Allocate(students, halls)

	// a 2x2 grid fits two same-subject students on a diagonal
	assert.Len(t, res.Assignments, 2)
	assert.Equal(t, map[string]int{
		models.UnplacedCapacityShortage:       2,
		models.UnplacedAdjacencyUnsatisfiable: 2,
	}, res.Reasons())
	assertPlanValid(t, res, students, halls, 0)
}

func TestAllocateNoHalls(t *testing.T) {
	students := makeStudents("S1", 2)
	res := NewEngine(Options{}).Allocate(students, []models.Hall{hall("H0", 0)})

	assert.Empty(t, res.Assignments)
	assert.Empty(t, res.Halls)
	assert.Equal(t, map[string]int{models.UnplacedCapacityShortage: 2}, res.Reasons())
}

func TestAllocateIsDeterministic(t *testing.T) {
	var students []models.Student
	for i, code := range []string{"CS101", "MA201", "PH110", "EE150"} {
		students = append(students, makeStudents(code, 7+i*3)...)
	}
	halls := []models.Hall{hall("H1", 12), hall("H2", 16), hall("H10", 9), hall("H3", 20)}

	engine := NewEngine(Options{})
	want := engine.Allocate(students, halls)
	assertPlanValid(t, want, students, halls, 0)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffledStudents := append([]models.Student(nil), students...)
		rng.Shuffle(len(shuffledStudents), func(a, b int) {
			shuffledStudents[a], shuffledStudents[b] = shuffledStudents[b], shuffledStudents[a]
		})
		shuffledHalls := append([]models.Hall(nil), halls...)
		rng.Shuffle(len(shuffledHalls), func(a, b int) {
			shuffledHalls[a], shuffledHalls[b] = shuffledHalls[b], shuffledHalls[a]
		})

		got := engine.Allocate(shuffledStudents, shuffledHalls)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("allocation differs for shuffled input (-want +got):\n%s", diff)
		}
	}
}

func TestAllocateBalancedPolicySpreadsStudents(t *testing.T) {
	var students []models.Student
	for i := 1; i <= 10; i++ {
		students = append(students, makeStudents(fmt.Sprintf("S%02d", i), 1)...)
	}
	halls := []models.Hall{hall("H1", 10), hall("H2", 10)}

	sequential := NewEngine(Options{}).Allocate(students, halls)
	assert.Equal(t, 10, sequential.Halls[0].Occupied)
	assert.Equal(t, 0, sequential.Halls[1].Occupied)
	assert.Len(t, sequential.UsedHalls(), 1)

	balanced := NewEngine(Options{FillPolicy: FillBalanced}).Allocate(students, halls)
	assert.Equal(t, 5, balanced.Halls[0].Occupied)
	assert.Equal(t, 5, balanced.Halls[1].Occupied)
	assertPlanValid(t, balanced, students, halls, 0)
}

func TestAllocateRowWidthOption(t *testing.T) {
	students := makeStudents("S1", 4)
	halls := []models.Hall{hall("H1", 4)}

	// a single row of four seats alternates
	res := NewEngine(Options{RowWidth: 4}).Allocate(students, halls)
	assert.Len(t, res.Assignments, 2)
	assert.Equal(t, 0, res.Assignments[0].SeatIndex)
	assert.Equal(t, 2, res.Assignments[1].SeatIndex)
	assertPlanValid(t, res, students, halls, 4)
}

func TestPlaceEvictsAfterMaxDeferrals(t *testing.T) {
	layout := NewLayout(2, 2)
	first := models.Student{RegNo: "A-1", SubjectCode: "A"}
	hs := &hallState{hall: hall("H1", 2), layout: layout, seats: []*models.Student{&first, nil}, occupied: 1}
	r := &run{
		queue: []candidate{
			{student: models.Student{RegNo: "A-2", SubjectCode: "A"}, deferrals: 1},
			{student: models.Student{RegNo: "B-1", SubjectCode: "B"}},
		},
		maxDeferrals: 1,
	}

	r.place(hs, 1)

	require.NotNil(t, hs.seats[1])
	assert.Equal(t, "B-1", hs.seats[1].RegNo)
	assert.Empty(t, r.queue)
	require.Len(t, r.evicted, 1)
	assert.Equal(t, "A-2", r.evicted[0].student.RegNo)
	assert.Equal(t, 2, r.evicted[0].deferrals)
}

func TestPlaceDefersSkippedCandidates(t *testing.T) {
	layout := NewLayout(2, 2)
	first := models.Student{RegNo: "A-1", SubjectCode: "A"}
	hs := &hallState{hall: hall("H1", 2), layout: layout, seats: []*models.Student{&first, nil}, occupied: 1}
	r := &run{
		queue: []candidate{
			{student: models.Student{RegNo: "A-2", SubjectCode: "A"}},
			{student: models.Student{RegNo: "B-1", SubjectCode: "B"}},
			{student: models.Student{RegNo: "C-1", SubjectCode: "C"}},
		},
		maxDeferrals: 3,
	}

	r.place(hs, 1)

	require.Len(t, r.queue, 2)
	assert.Equal(t, "C-1", r.queue[0].student.RegNo)
	assert.Equal(t, "A-2", r.queue[1].student.RegNo)
	assert.Equal(t, 1, r.queue[1].deferrals)
}

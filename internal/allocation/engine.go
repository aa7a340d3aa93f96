package allocation

import (
	"fmt"
	"sort"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// FillPolicy selects how students are spread over halls.
type FillPolicy string

const (
	// FillSequential fills each hall up to capacity before moving to the next one.
	FillSequential FillPolicy = "sequential"
	// FillBalanced first fills every hall up to its proportional share of the roster.
	FillBalanced FillPolicy = "balanced"
)

// Options tunes the engine. Zero values select the documented defaults.
type Options struct {
	RowWidth     int
	MaxDeferrals int
	FillPolicy   FillPolicy
}

// HallUsage summarises how one hall was used by a run.
type HallUsage struct {
	HallNo   string `json:"hall_no"`
	Block    string `json:"block"`
	Capacity int    `json:"capacity"`
	Width    int    `json:"width"`
	Occupied int    `json:"occupied"`
}

// Result is the outcome of a single allocation. Every input student is either in
// Assignments or in Unplaced.
type Result struct {
	Assignments []models.SeatAssignment
	Unplaced    []models.UnplacedStudent
	Halls       []HallUsage
}

// UsedHalls returns the halls holding at least one student, in hall order.
func (r Result) UsedHalls() []HallUsage {
	used := make([]HallUsage, 0, len(r.Halls))
	for _, h := range r.Halls {
		if h.Occupied > 0 {
			used = append(used, h)
		}
	}
	return used
}

// Reasons counts unplaced students per reason.
func (r Result) Reasons() map[string]int {
	counts := make(map[string]int)
	for _, u := range r.Unplaced {
		counts[u.Reason]++
	}
	return counts
}

// Engine computes deterministic seating plans.
type Engine struct {
	opts Options
}

// NewEngine constructs an engine with the given options.
func NewEngine(opts Options) *Engine {
	if opts.FillPolicy == "" {
		opts.FillPolicy = FillSequential
	}
	return &Engine{opts: opts}
}

type candidate struct {
	student   models.Student
	deferrals int
}

type hallState struct {
	hall     models.Hall
	layout   Layout
	seats    []*models.Student
	occupied int
}

type run struct {
	queue        []candidate
	evicted      []candidate
	maxDeferrals int
}

// Allocate seats students in halls. Inputs are copied and normalised so the result only
// depends on the sets of students and halls, not on their order.
func (e *Engine) Allocate(students []models.Student, halls []models.Hall) Result {
	sortedStudents := append([]models.Student(nil), students...)
	SortStudents(sortedStudents)
	sortedHalls := append([]models.Hall(nil), halls...)
	SortHalls(sortedHalls)

	states := make([]*hallState, 0, len(sortedHalls))
	totalCapacity := 0
	for _, h := range sortedHalls {
		if h.Capacity <= 0 {
			continue
		}
		layout := LayoutFor(h, e.opts.RowWidth)
		states = append(states, &hallState{hall: h, layout: layout, seats: make([]*models.Student, layout.Capacity)})
		totalCapacity += h.Capacity
	}

	merged := Interleave(sortedStudents)
	r := &run{queue: make([]candidate, 0, len(merged)), maxDeferrals: e.opts.MaxDeferrals}
	for _, st := range merged {
		r.queue = append(r.queue, candidate{student: st})
	}
	if r.maxDeferrals <= 0 {
		r.maxDeferrals = len(r.queue)
	}

	if e.opts.FillPolicy == FillBalanced && totalCapacity > 0 {
		for _, hs := range states {
			quota := (len(merged)*hs.hall.Capacity + totalCapacity - 1) / totalCapacity
			r.fill(hs, quota)
		}
	}
	for _, hs := range states {
		r.fill(hs, hs.hall.Capacity)
	}

	return buildResult(states, r, len(merged), totalCapacity)
}

// fill walks the seats of a hall in layout order until the hall holds limit students or
// the queue is empty.
func (r *run) fill(hs *hallState, limit int) {
	if limit > hs.layout.Capacity {
		limit = hs.layout.Capacity
	}
	for seat := 0; seat < hs.layout.Capacity; seat++ {
		if len(r.queue) == 0 || hs.occupied >= limit {
			return
		}
		if hs.seats[seat] != nil {
			continue
		}
		r.place(hs, seat)
	}
}

// place puts the first queued student whose subject differs from every occupied neighbour
// on seat. Students passed over are deferred to the back of the queue. The seat stays empty
// when nobody fits.
func (r *run) place(hs *hallState, seat int) {
	idx := -1
	for i, c := range r.queue {
		if fits(hs, seat, c.student.SubjectCode) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	chosen := r.queue[idx].student
	hs.seats[seat] = &chosen
	hs.occupied++

	skipped := r.queue[:idx]
	rest := make([]candidate, 0, len(r.queue)-1)
	rest = append(rest, r.queue[idx+1:]...)
	for _, c := range skipped {
		c.deferrals++
		if c.deferrals > r.maxDeferrals {
			r.evicted = append(r.evicted, c)
			continue
		}
		rest = append(rest, c)
	}
	r.queue = rest
}

func fits(hs *hallState, seat int, subject string) bool {
	for _, n := range hs.layout.Neighbors(seat) {
		if occupant := hs.seats[n]; occupant != nil && occupant.SubjectCode == subject {
			return false
		}
	}
	return true
}

func buildResult(states []*hallState, r *run, total, capacity int) Result {
	res := Result{
		Assignments: make([]models.SeatAssignment, 0, total),
		Halls:       make([]HallUsage, 0, len(states)),
	}
	for _, hs := range states {
		for seat, st := range hs.seats {
			if st == nil {
				continue
			}
			row, col := hs.layout.Position(seat)
			res.Assignments = append(res.Assignments, models.SeatAssignment{
				HallNo:      hs.hall.HallNo,
				SeatIndex:   seat,
				Row:         row,
				Column:      col,
				RegNo:       st.RegNo,
				SubjectCode: st.SubjectCode,
				Dept:        st.Dept,
			})
		}
		res.Halls = append(res.Halls, HallUsage{
			HallNo:   hs.hall.HallNo,
			Block:    hs.hall.Block,
			Capacity: hs.hall.Capacity,
			Width:    hs.layout.Width,
			Occupied: hs.occupied,
		})
	}

	leftover := append(r.evicted, r.queue...)
	shortage := total - capacity
	if shortage < 0 {
		shortage = 0
	}
	if shortage > len(leftover) {
		shortage = len(leftover)
	}
	cut := len(leftover) - shortage
	for i, c := range leftover {
		u := models.UnplacedStudent{
			RegNo:       c.student.RegNo,
			SubjectCode: c.student.SubjectCode,
			Dept:        c.student.Dept,
		}
		if i >= cut {
			u.Reason = models.UnplacedCapacityShortage
			u.Detail = fmt.Sprintf("%d students registered for %d seats", total, capacity)
		} else {
			u.Reason = models.UnplacedAdjacencyUnsatisfiable
			u.Detail = fmt.Sprintf("no free seat without an adjacent %s candidate after %d deferrals", c.student.SubjectCode, c.deferrals)
		}
		res.Unplaced = append(res.Unplaced, u)
	}
	sort.SliceStable(res.Unplaced, func(i, j int) bool {
		if res.Unplaced[i].SubjectCode != res.Unplaced[j].SubjectCode {
			return res.Unplaced[i].SubjectCode < res.Unplaced[j].SubjectCode
		}
		return res.Unplaced[i].RegNo < res.Unplaced[j].RegNo
	})

	return res
}

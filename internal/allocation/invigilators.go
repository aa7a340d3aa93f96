package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/hall-matrix-api/internal/models"
)

// InvigilatorPlan maps hall numbers to the invigilators supervising them.
type InvigilatorPlan struct {
	ByHall   map[string][]models.Invigilator
	Warnings []models.AllocationWarning
}

// Names returns the comma separated invigilator names of a hall, or "" when it has none.
func (p InvigilatorPlan) Names(hallNo string) string {
	list := p.ByHall[hallNo]
	names := make([]string, len(list))
	for i, inv := range list {
		names[i] = inv.Name
	}
	return strings.Join(names, ", ")
}

// SortInvigilators orders the pool by name, then id.
func SortInvigilators(pool []models.Invigilator) {
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Name != pool[j].Name {
			return pool[i].Name < pool[j].Name
		}
		return pool[i].ID < pool[j].ID
	})
}

// AssignInvigilators gives every used hall one invigilator in pool order. When
// studentsPerInvigilator is positive, spare invigilators are handed out round-robin to halls
// whose occupancy calls for more than one. Halls left uncovered produce warnings.
func AssignInvigilators(used []HallUsage, pool []models.Invigilator, studentsPerInvigilator int) InvigilatorPlan {
	ordered := append([]models.Invigilator(nil), pool...)
	SortInvigilators(ordered)

	plan := InvigilatorPlan{ByHall: make(map[string][]models.Invigilator, len(used))}
	next := 0
	for _, h := range used {
		if next >= len(ordered) {
			plan.Warnings = append(plan.Warnings, models.AllocationWarning{
				Code:    models.WarningInvigilatorShortage,
				Message: fmt.Sprintf("hall %s has no invigilator: %d invigilators for %d halls", h.HallNo, len(ordered), len(used)),
				HallNo:  h.HallNo,
			})
			continue
		}
		plan.ByHall[h.HallNo] = append(plan.ByHall[h.HallNo], ordered[next])
		next++
	}

	if studentsPerInvigilator <= 0 {
		return plan
	}

	need := make(map[string]int, len(used))
	for _, h := range used {
		need[h.HallNo] = (h.Occupied + studentsPerInvigilator - 1) / studentsPerInvigilator
	}
	for next < len(ordered) {
		assigned := false
		for _, h := range used {
			if next >= len(ordered) {
				break
			}
			if len(plan.ByHall[h.HallNo]) >= need[h.HallNo] {
				continue
			}
			plan.ByHall[h.HallNo] = append(plan.ByHall[h.HallNo], ordered[next])
			next++
			assigned = true
		}
		if !assigned {
			break
		}
	}

	return plan
}

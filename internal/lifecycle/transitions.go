package lifecycle

import "github.com/safereport/backend/internal/models"

var transitions = map[models.Status][]models.Status{
	models.StatusNew:         {models.StatusUnderReview, models.StatusResolved, models.StatusEscalated},
	models.StatusUnderReview: {models.StatusResolved, models.StatusEscalated},
	models.StatusEscalated:   {models.StatusUnderReview, models.StatusResolved},
	models.StatusResolved:    nil,
}

// CanTransition reports whether a report in from may move to to.
// Nothing returns to new and resolved is terminal.
func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the states reachable from s.
func NextStatuses(s models.Status) []models.Status {
	return append([]models.Status(nil), transitions[s]...)
}

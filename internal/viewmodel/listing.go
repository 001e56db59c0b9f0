package viewmodel

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-portal/internal/store"
)

// DoctorListing is one row of the admin doctor table.
type DoctorListing struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Specialization string    `json:"specialization"`
	WorkStartDate  string    `json:"work_start_date"`
}

// MergeDoctorListings joins doctor profiles with their doctor rows and account
// emails by id. Profiles drive the result; missing parts stay empty.
func MergeDoctorListings(profiles []store.Profile, doctors []store.Doctor, emails map[uuid.UUID]string) []DoctorListing {
	byID := make(map[uuid.UUID]store.Doctor, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
	}

	out := make([]DoctorListing, 0, len(profiles))
	for _, p := range profiles {
		item := DoctorListing{
			ID:        p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     emails[p.ID],
		}
		if d, ok := byID[p.ID]; ok {
			item.Specialization = d.Specialization
			item.WorkStartDate = formatDay(d.WorkStartDate)
		}
		out = append(out, item)
	}
	return out
}

func formatDay(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

// FilterDoctorListings keeps rows whose first name, last name or specialization
// contains the sanitized query, case-insensitively. It reports whether a filter applied.
func FilterDoctorListings(items []DoctorListing, query string) ([]DoctorListing, bool) {
	q := strings.ToLower(store.SanitizeSearch(query))
	if q == "" {
		return items, false
	}
	out := make([]DoctorListing, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.FirstName), q) ||
			strings.Contains(strings.ToLower(it.LastName), q) ||
			strings.Contains(strings.ToLower(it.Specialization), q) {
			out = append(out, it)
		}
	}
	return out, true
}

// SortDoctorListing orders filtered results by full name and unfiltered ones by
// work start date, newest first. Sorting is in place and stable.
func SortDoctorListing(items []DoctorListing, filtered bool) {
	if filtered {
		slices.SortStableFunc(items, func(a, b DoctorListing) int {
			return cmp.Compare(
				strings.ToLower(a.FirstName+" "+a.LastName),
				strings.ToLower(b.FirstName+" "+b.LastName),
			)
		})
		return
	}
	slices.SortStableFunc(items, func(a, b DoctorListing) int {
		return cmp.Compare(b.WorkStartDate, a.WorkStartDate)
	})
}

package manager

import (
	"time"

	"github.com/gridpool/gridpool/pkg/types"
)

// AvailabilityRow is one (faculty, day) slice of derived availability,
// the unit the read-only resource queries return.
type AvailabilityRow struct {
	FacultyID string          `json:"faculty_id"`
	Date      time.Time       `json:"date"`
	Available types.Resources `json:"available"`
}

// AssignedTotals returns the capacity assigned to every faculty.
func (m *Manager) AssignedTotals() ([]types.FacultyTotal, error) {
	return m.capacity.TotalsPerFaculty()
}

// AssignedTotalsFor returns the capacity assigned to one faculty;
// zero-valued if the faculty has no nodes.
func (m *Manager) AssignedTotalsFor(facultyID string) (types.FacultyTotal, error) {
	return m.capacity.TotalsForFaculty(facultyID)
}

// ReservedTotals returns reservations grouped per faculty per day,
// optionally filtered by faculty and/or day. Empty facultyID means
// all faculties; a zero date means all days.
func (m *Manager) ReservedTotals(facultyID string, date time.Time) ([]types.ReservedTotal, error) {
	totals, err := m.schedule.ReservedPerFacultyPerDay()
	if err != nil {
		return nil, err
	}
	if facultyID == "" && date.IsZero() {
		return totals, nil
	}

	day := types.DayOf(date)
	var out []types.ReservedTotal
	for _, t := range totals {
		if facultyID != "" && t.FacultyID != facultyID {
			continue
		}
		if !date.IsZero() && !types.DayOf(t.Date).Equal(day) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// AvailableTotals returns derived availability per faculty per day
// from tomorrow through the latest reservation, with the same
// optional faculty/day filters as ReservedTotals. Faculties are
// covered whether or not they have reservations.
func (m *Manager) AvailableTotals(facultyID string, date time.Time) ([]AvailabilityRow, error) {
	from := types.Tomorrow(m.now())
	until, ok, err := m.schedule.LatestScheduledDate()
	if err != nil {
		return nil, err
	}
	if !ok || until.Before(from) {
		until = from
	}

	var faculties []string
	if facultyID != "" {
		faculties = []string{facultyID}
	} else {
		totals, err := m.capacity.TotalsPerFaculty()
		if err != nil {
			return nil, err
		}
		for _, t := range totals {
			faculties = append(faculties, t.FacultyID)
		}
	}

	day := types.DayOf(date)
	var rows []AvailabilityRow
	for _, f := range faculties {
		series, err := m.calc.Range(f, from, until)
		if err != nil {
			return nil, err
		}
		for _, entry := range series {
			if !date.IsZero() && !types.DayOf(entry.Date).Equal(day) {
				continue
			}
			rows = append(rows, AvailabilityRow{
				FacultyID: f,
				Date:      entry.Date,
				Available: entry.Available,
			})
		}
	}
	return rows, nil
}

// AvailableUntil returns one faculty's day-by-day availability from
// tomorrow through the given date inclusive.
func (m *Manager) AvailableUntil(facultyID string, until time.Time) ([]types.AvailableResources, error) {
	return m.calc.Range(facultyID, types.Tomorrow(m.now()), until)
}

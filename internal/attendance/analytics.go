package attendance

import "sort"

// monthlyWindow caps how many trailing months the dashboard shows.
const monthlyWindow = 6

// recentWindow caps the recent-records list.
const recentWindow = 10

// percentage computes 100*(present+onDuty)/total, or 0 for an empty group.
func percentage(present, onDuty, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(present+onDuty) / float64(total) * 100
}

// ComputeAnalytics derives the full student dashboard from a reconciled
// record list. It is a pure function: equal inputs produce equal outputs,
// and ties in percentage or date keep their input order.
func ComputeAnalytics(records []JoinedRecord) Analytics {
	var present, absent, onDuty int
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			present++
		case StatusAbsent:
			absent++
		case StatusOnDuty:
			onDuty++
		}
	}

	return Analytics{
		OverallPercentage: percentage(present, onDuty, len(records)),
		TotalClasses:      len(records),
		TotalPresent:      present,
		TotalAbsent:       absent,
		TotalOnDuty:       onDuty,
		SubjectWise:       SubjectWise(records),
		Monthly:           MonthlyBreakdown(records),
		RecentRecords:     RecentRecords(records),
	}
}

// SubjectWise groups records by instructor and computes per-subject
// percentages, sorted best subject first. Equal percentages keep the
// order in which the instructor was first seen.
func SubjectWise(records []JoinedRecord) []SubjectSummary {
	order := make([]string, 0)
	groups := make(map[string]*SubjectSummary)

	for _, r := range records {
		s, ok := groups[r.Faculty.ID]
		if !ok {
			s = &SubjectSummary{
				FacultyID:          r.Faculty.ID,
				FacultyName:        r.Faculty.Name,
				FacultyDesignation: r.Faculty.Designation,
				FacultyDepartment:  r.Faculty.Department,
			}
			groups[r.Faculty.ID] = s
			order = append(order, r.Faculty.ID)
		}
		s.TotalClasses++
		switch r.Status {
		case StatusPresent:
			s.PresentCount++
		case StatusAbsent:
			s.AbsentCount++
		case StatusOnDuty:
			s.OnDutyCount++
		}
	}

	out := make([]SubjectSummary, 0, len(order))
	for _, id := range order {
		s := groups[id]
		s.Percentage = percentage(s.PresentCount, s.OnDutyCount, s.TotalClasses)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// MonthlyBreakdown groups records by calendar month, chronologically, and
// keeps only the most recent months with observed data. Records with a
// malformed date are skipped.
func MonthlyBreakdown(records []JoinedRecord) []MonthlySummary {
	groups := make(map[int]*MonthlySummary)

	for _, r := range records {
		t := r.parsedDate()
		if t.IsZero() {
			continue
		}
		key := t.Year()*12 + int(t.Month())
		m, ok := groups[key]
		if !ok {
			m = &MonthlySummary{Year: t.Year(), Month: int(t.Month())}
			groups[key] = m
		}
		m.TotalClasses++
		switch r.Status {
		case StatusPresent:
			m.PresentCount++
		case StatusAbsent:
			m.AbsentCount++
		case StatusOnDuty:
			m.OnDutyCount++
		}
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	if len(keys) > monthlyWindow {
		keys = keys[len(keys)-monthlyWindow:]
	}

	out := make([]MonthlySummary, 0, len(keys))
	for _, k := range keys {
		m := groups[k]
		m.Percentage = percentage(m.PresentCount, m.OnDutyCount, m.TotalClasses)
		out = append(out, *m)
	}
	return out
}

// RecentRecords returns the newest records by date, descending. Records
// sharing a date keep their input order.
func RecentRecords(records []JoinedRecord) []JoinedRecord {
	out := make([]JoinedRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].parsedDate().After(out[j].parsedDate())
	})
	if len(out) > recentWindow {
		out = out[:recentWindow]
	}
	return out
}

// ComputeStats collapses a reconciled record list into the compact view
// faculty see in the roster: totals and the overall percentage.
func ComputeStats(records []JoinedRecord) StudentStats {
	var counted int
	for _, r := range records {
		if r.Status.CountsAsPresent() {
			counted++
		}
	}
	return StudentStats{
		TotalClasses: len(records),
		PresentCount: counted,
		Percentage:   percentage(counted, 0, len(records)),
	}
}

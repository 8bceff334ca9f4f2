package attendance

import (
	"fmt"
	"math"
	"testing"
)

func jr(id, date, periodID, facultyID string, status Status) JoinedRecord {
	return JoinedRecord{
		ID:     id,
		Date:   date,
		Status: status,
		Period: Period{ID: periodID, FacultyID: facultyID, Name: "Period " + periodID},
		Faculty: Faculty{
			ID:   facultyID,
			Name: "Faculty " + facultyID,
		},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.05
}

func TestComputeAnalyticsOverall(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     float64
	}{
		{name: "empty", statuses: nil, want: 0},
		{name: "all present", statuses: []Status{StatusPresent, StatusPresent, StatusPresent}, want: 100},
		{name: "all absent", statuses: []Status{StatusAbsent, StatusAbsent}, want: 0},
		{name: "on duty counts as present", statuses: []Status{StatusOnDuty, StatusOnDuty}, want: 100},
		{name: "two of three", statuses: []Status{StatusPresent, StatusPresent, StatusAbsent}, want: 66.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := make([]JoinedRecord, 0, len(tt.statuses))
			for i, st := range tt.statuses {
				recs = append(recs, jr(
					fmt.Sprintf("r%d", i), fmt.Sprintf("2026-03-%02d", i+1), "p1", "f1", st,
				))
			}
			got := ComputeAnalytics(recs)
			if !almostEqual(got.OverallPercentage, tt.want) {
				t.Errorf("OverallPercentage = %.2f, want %.2f", got.OverallPercentage, tt.want)
			}
			if got.TotalClasses != len(tt.statuses) {
				t.Errorf("TotalClasses = %d, want %d", got.TotalClasses, len(tt.statuses))
			}
		})
	}
}

func TestComputeAnalyticsCounts(t *testing.T) {
	recs := []JoinedRecord{
		jr("a", "2026-03-01", "p1", "f1", StatusPresent),
		jr("b", "2026-03-02", "p1", "f1", StatusAbsent),
		jr("c", "2026-03-03", "p1", "f1", StatusOnDuty),
		jr("d", "2026-03-04", "p1", "f1", StatusPresent),
	}
	got := ComputeAnalytics(recs)
	if got.TotalPresent != 2 || got.TotalAbsent != 1 || got.TotalOnDuty != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", got.TotalPresent, got.TotalAbsent, got.TotalOnDuty)
	}
	if !almostEqual(got.OverallPercentage, 75) {
		t.Errorf("OverallPercentage = %.2f, want 75", got.OverallPercentage)
	}
}

func TestSubjectWiseEqualPercentagesKeepInputOrder(t *testing.T) {
	// Two instructors, 5 records each, 4 present + 1 absent: both land at
	// 80% and the first instructor seen must stay first.
	var recs []JoinedRecord
	for i, fid := range []string{"f2", "f1"} {
		for j := 0; j < 4; j++ {
			recs = append(recs, jr("", fmt.Sprintf("2026-02-%02d", i*5+j+1), "p"+fid, fid, StatusPresent))
		}
		recs = append(recs, jr("", fmt.Sprintf("2026-02-%02d", i*5+5), "p"+fid, fid, StatusAbsent))
	}

	got := SubjectWise(recs)
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	for _, g := range got {
		if !almostEqual(g.Percentage, 80) {
			t.Errorf("faculty %s percentage = %.2f, want 80", g.FacultyID, g.Percentage)
		}
		if g.TotalClasses != 5 || g.PresentCount != 4 || g.AbsentCount != 1 {
			t.Errorf("faculty %s counts = %d/%d/%d", g.FacultyID, g.TotalClasses, g.PresentCount, g.AbsentCount)
		}
	}
	if got[0].FacultyID != "f2" || got[1].FacultyID != "f1" {
		t.Errorf("tie order = [%s %s], want [f2 f1]", got[0].FacultyID, got[1].FacultyID)
	}
}

func TestSubjectWiseSortsByPercentageDescending(t *testing.T) {
	recs := []JoinedRecord{
		jr("a", "2026-01-05", "p1", "low", StatusAbsent),
		jr("b", "2026-01-06", "p1", "low", StatusPresent),
		jr("c", "2026-01-05", "p2", "high", StatusPresent),
		jr("d", "2026-01-06", "p2", "high", StatusPresent),
	}
	got := SubjectWise(recs)
	if len(got) != 2 || got[0].FacultyID != "high" || got[1].FacultyID != "low" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestMonthlyBreakdownKeepsMostRecentSixMonths(t *testing.T) {
	months := []string{"2025-06", "2025-07", "2025-08", "2025-09", "2025-10", "2025-11", "2025-12", "2026-01"}
	var recs []JoinedRecord
	for _, m := range months {
		recs = append(recs, jr("", m+"-15", "p1", "f1", StatusPresent))
		recs = append(recs, jr("", m+"-16", "p1", "f1", StatusAbsent))
	}

	got := MonthlyBreakdown(recs)
	if len(got) != 6 {
		t.Fatalf("got %d months, want 6", len(got))
	}
	// Oldest two months fall off; remainder is chronological.
	if got[0].Year != 2025 || got[0].Month != 8 {
		t.Errorf("first month = %d-%02d, want 2025-08", got[0].Year, got[0].Month)
	}
	if got[5].Year != 2026 || got[5].Month != 1 {
		t.Errorf("last month = %d-%02d, want 2026-01", got[5].Year, got[5].Month)
	}
	for _, m := range got {
		if !almostEqual(m.Percentage, 50) {
			t.Errorf("%d-%02d percentage = %.2f, want 50", m.Year, m.Month, m.Percentage)
		}
	}
}

func TestMonthlyBreakdownSkipsMalformedDates(t *testing.T) {
	recs := []JoinedRecord{
		jr("a", "2026-03-01", "p1", "f1", StatusPresent),
		jr("b", "not-a-date", "p1", "f1", StatusPresent),
	}
	got := MonthlyBreakdown(recs)
	if len(got) != 1 || got[0].TotalClasses != 1 {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}

func TestRecentRecords(t *testing.T) {
	var recs []JoinedRecord
	for day := 1; day <= 12; day++ {
		recs = append(recs, jr("", fmt.Sprintf("2026-04-%02d", day), "p1", "f1", StatusPresent))
	}

	got := RecentRecords(recs)
	if len(got) != 10 {
		t.Fatalf("got %d records, want 10", len(got))
	}
	if got[0].Date != "2026-04-12" || got[9].Date != "2026-04-03" {
		t.Errorf("window = %s..%s, want 2026-04-12..2026-04-03", got[0].Date, got[9].Date)
	}
}

func TestRecentRecordsTiesKeepInputOrder(t *testing.T) {
	recs := []JoinedRecord{
		jr("first", "2026-04-01", "p1", "f1", StatusPresent),
		jr("second", "2026-04-01", "p2", "f1", StatusPresent),
	}
	got := RecentRecords(recs)
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("tie order = [%s %s], want [first second]", got[0].ID, got[1].ID)
	}
}

func TestComputeStats(t *testing.T) {
	recs := []JoinedRecord{
		jr("a", "2026-03-01", "p1", "f1", StatusPresent),
		jr("b", "2026-03-02", "p1", "f1", StatusOnDuty),
		jr("c", "2026-03-03", "p1", "f1", StatusAbsent),
	}
	got := ComputeStats(recs)
	if got.TotalClasses != 3 || got.PresentCount != 2 {
		t.Errorf("stats = %+v", got)
	}
	if !almostEqual(got.Percentage, 66.7) {
		t.Errorf("Percentage = %.2f, want 66.7", got.Percentage)
	}
}

package extract

import "github.com/akadex/akadex/internal/norm"

// RowConfidence scores how complete a schedule row is, 0.0 to 1.0, and lists
// the issues found. Missing course name is penalized hardest since a row
// without it cannot be cited; an unparsable time range outweighs most other
// gaps because downstream filters key on it.
func RowConfidence(r ScheduleRow) (float64, []string) {
	var issues []string
	score := 1.0
	if norm.Day(r.Day) == "" {
		score -= 0.15
		issues = append(issues, "missing_hari")
	}
	if norm.Text(r.Session) == "" {
		score -= 0.12
		issues = append(issues, "missing_sesi")
	}
	if jam := norm.TimeRange(r.Time); jam == "" || !norm.ValidTimeRange(jam) {
		score -= 0.25
		issues = append(issues, "invalid_jam")
	}
	if norm.Text(r.Course) == "" {
		score -= 0.45
		issues = append(issues, "missing_mata_kuliah")
	}
	if norm.Text(r.Lecturer) == "" {
		score -= 0.20
		issues = append(issues, "missing_dosen")
	}
	if norm.Text(r.Room) == "" {
		score -= 0.10
		issues = append(issues, "missing_ruang")
	}
	if norm.Text(r.Class) == "" {
		score -= 0.08
		issues = append(issues, "missing_kelas")
	}
	if norm.Text(r.Semester) == "" {
		score -= 0.08
		issues = append(issues, "missing_semester")
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, issues
}

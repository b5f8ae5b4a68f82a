package extract

import (
	"regexp"
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

// PendingGrade marks a course whose grade is withheld until the student
// fills in the course questionnaire.
const PendingGrade = "ISI KUISIONER TERLEBIH DAHULU"

var (
	// transcriptRowRE matches one transcript line: row number, course code,
	// course name, credits, then the grade tail.
	transcriptRowRE = regexp.MustCompile(`(?i)^\s*(\d{1,3})\s+([A-Z0-9]{5,12})\s+(.+?)\s+(\d{1,2})\s+(.+?)\s*$`)

	transcriptPendingRE = regexp.MustCompile(`(?i)isi\s+kuisioner\s+terlebih\s+dahulu`)

	// gradePrefixRE matches a whitelisted letter grade at the start of the
	// tail. Two-letter grades are listed before their one-letter prefixes.
	gradePrefixRE = regexp.MustCompile(`(?i)^(A-|AB|A|B\+|B-|BC|B|C\+|C-|CD|C|D\+|D-|D|E)(\s|$)`)

	// rowBoundaryRE finds the start of a transcript line inside a single-line
	// blob so it can be re-split on row boundaries.
	rowBoundaryRE = regexp.MustCompile(`\s(\d{1,3}\s+[A-Z0-9]{5,12}\s)`)

	multiSpaceRE = regexp.MustCompile(`\s{2,}`)

	creditsDoneRE    = regexp.MustCompile(`(?i)Jumlah SKS yang telah ditempuh\s*:\s*(\d+)`)
	creditsNeededRE  = regexp.MustCompile(`(?i)SKS yang harus ditempuh\s*:\s*(\d+)`)
	qualityPointsRE  = regexp.MustCompile(`(?i)Jumlah Nilai Mutu\s*:\s*([0-9]+(?:\.[0-9]+)?)`)
	gpaRE            = regexp.MustCompile(`(?i)IPK\s*:\s*([0-9]+(?:\.[0-9]+)?)`)
)

// GradeWhitelist is the set of letter grades accepted from any parser.
var GradeWhitelist = map[string]bool{
	"A": true, "B": true, "C": true, "D": true, "E": true,
	"AB": true, "BC": true, "CD": true,
	"A-": true, "B+": true, "B-": true, "C+": true, "C-": true, "D+": true, "D-": true,
}

// TranscriptRow is one graded (or pending) course from a transcript.
type TranscriptRow struct {
	Semester int
	Course   string
	Credits  int
	Grade    string
	RowNo    int
	Code     string
	Page     int
}

// TranscriptStats summarizes a deterministic transcript parse. CreditsDone
// and CreditsRequired are -1 when the document does not state them.
type TranscriptStats struct {
	RowsDetected      int
	RowsValid         int
	RowsPending       int
	GradeDistribution map[string]int
	CreditsDone       int
	CreditsRequired   int
	QualityPoints     string
	GPA               string
}

// TranscriptResult is the output of the deterministic transcript parse.
type TranscriptResult struct {
	OK    bool
	Rows  []TranscriptRow
	Stats TranscriptStats
}

// TranscriptFromText parses transcript lines deterministically. A blob with
// no newlines is first re-split on row boundaries. Lines that match the row
// shape but carry an unknown grade are counted as detected and dropped;
// pending-questionnaire rows are kept with the pending grade marker. Summary
// figures (credits done/required, quality points, GPA) are mined from the
// full text when present.
func TranscriptFromText(text string, fallbackSemester int) TranscriptResult {
	raw := text
	if !strings.Contains(raw, "\n") {
		raw = rowBoundaryRE.ReplaceAllString(raw, "\n$1")
	}

	stats := TranscriptStats{
		GradeDistribution: map[string]int{},
		CreditsDone:       -1,
		CreditsRequired:   -1,
	}
	var rows []TranscriptRow
	for _, ln := range strings.Split(raw, "\n") {
		line := strings.TrimSpace(multiSpaceRE.ReplaceAllString(ln, " "))
		if line == "" {
			continue
		}
		m := transcriptRowRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		stats.RowsDetected++
		course := norm.Text(m[3])
		credits, ok := norm.Int(m[4])
		if course == "" || !ok {
			continue
		}
		rowNo, _ := norm.Int(m[1])
		code := strings.ToUpper(norm.Text(m[2]))
		tail := m[5]
		if transcriptPendingRE.MatchString(tail) {
			stats.RowsPending++
			rows = append(rows, TranscriptRow{
				Semester: fallbackSemester,
				Course:   course,
				Credits:  credits,
				Grade:    PendingGrade,
				RowNo:    rowNo,
				Code:     code,
			})
			continue
		}
		gm := gradePrefixRE.FindStringSubmatch(strings.ToUpper(norm.Text(tail)))
		if gm == nil {
			continue
		}
		grade := strings.ToUpper(norm.Text(gm[1]))
		if !GradeWhitelist[grade] {
			continue
		}
		stats.GradeDistribution[grade]++
		rows = append(rows, TranscriptRow{
			Semester: fallbackSemester,
			Course:   course,
			Credits:  credits,
			Grade:    grade,
			RowNo:    rowNo,
			Code:     code,
		})
	}
	stats.RowsValid = len(rows)

	if m := creditsDoneRE.FindStringSubmatch(text); m != nil {
		if n, ok := norm.Int(m[1]); ok {
			stats.CreditsDone = n
		}
	}
	if m := creditsNeededRE.FindStringSubmatch(text); m != nil {
		if n, ok := norm.Int(m[1]); ok {
			stats.CreditsRequired = n
		}
	}
	if m := qualityPointsRE.FindStringSubmatch(text); m != nil {
		stats.QualityPoints = norm.Text(m[1])
	}
	if m := gpaRE.FindStringSubmatch(text); m != nil {
		stats.GPA = norm.Text(m[1])
	}

	return TranscriptResult{OK: len(rows) > 0, Rows: rows, Stats: stats}
}

package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

// TranscriptProfile is the best-effort identity and progress summary mined
// from a transcript's free-text chunks. Unmatched fields keep their zero
// values and render as placeholders.
type TranscriptProfile struct {
	Nama           string
	NIM            string
	ProgramStudi   string
	SKSDitempuh    int // -1 when absent
	SKSWajib       int // -1 when absent
	IPK            string
	PendingCourses []string
}

var statsQueryWords = []string{
	"ipk", "ips", "sks", "total sks", "hasil studi", "progress studi", "statistik studi", "belum dinilai",
}

func isStatsQuery(query string) bool {
	ql := strings.ToLower(query)
	for _, w := range statsQueryWords {
		if strings.Contains(ql, w) {
			return true
		}
	}
	return false
}

// RenderTranscriptAnswer renders the transcript answer for the query
// intent: a low-grade table, a statistics-only summary, or the full recap
// with a profile header. Identical inputs always render identical output.
func RenderTranscriptAnswer(rows []TranscriptFact, query string, profile TranscriptProfile) string {
	if len(rows) == 0 {
		return "## Ringkasan\n" +
			"Maaf, data tidak ditemukan di dokumen Anda.\n\n" +
			"## Opsi Lanjut\n" +
			"- Pastikan dokumen KHS/Transkrip sudah terunggah.\n" +
			"- Jika ingin, sebutkan semester spesifik yang ingin direkap."
	}

	if IsLowGradeQuery(query) {
		totalSKS := 0
		for _, row := range rows {
			totalSKS += row.SKS
		}
		lines := []string{
			"## Ringkasan Nilai Rendah",
			fmt.Sprintf("- Total mata kuliah: **%d**", len(rows)),
			fmt.Sprintf("- Total SKS: **%d**", totalSKS),
			"",
			"## Tabel",
			"| Semester | Mata Kuliah | SKS | Nilai Huruf |",
			"|---|---|---:|---|",
		}
		for _, row := range rows {
			lines = append(lines, fmt.Sprintf("| %d | %s | %d | %s |",
				row.Semester, row.MataKuliah, row.SKS, row.NilaiHuruf))
		}
		return strings.Join(lines, "\n")
	}

	totalSKS := 0
	for _, row := range rows {
		totalSKS += row.SKS
	}
	sksDitempuh := profile.SKSDitempuh
	if sksDitempuh < 0 {
		sksDitempuh = totalSKS
	}
	statsOnly := isStatsQuery(query) && !IsCourseRecapQuery(query)

	intro := "Berdasarkan Kartu Hasil Studi, berikut rekap hasil studi kamu."
	if statsOnly {
		intro = "Berdasarkan Kartu Hasil Studi, berikut ringkasan hasil studi kamu."
	}
	lines := []string{
		intro,
		"",
		"## Informasi Umum",
		"- Nama: **" + orDash(profile.Nama) + "**",
		"- NIM: **" + orDash(profile.NIM) + "**",
		"- Program Studi: **" + orDash(profile.ProgramStudi) + "**",
		"",
		"## Statistik Studi",
		fmt.Sprintf("- Total mata kuliah terdata: **%d**", len(rows)),
		fmt.Sprintf("- Total SKS ditempuh: **%d SKS**", sksDitempuh),
		"- SKS wajib: **" + intOrDash(profile.SKSWajib) + " SKS**",
		"- IPK: **" + orDash(profile.IPK) + "**",
		pendingLine(profile.PendingCourses),
	}
	if statsOnly {
		return strings.Join(lines, "\n")
	}

	lines = append(lines,
		"",
		"## Daftar Mata Kuliah",
		"| No | Mata Kuliah | SKS | Nilai |",
		"|---:|---|---:|---|",
	)
	pendingLC := map[string]bool{}
	for _, mk := range profile.PendingCourses {
		pendingLC[strings.ToLower(mk)] = true
	}
	for i, row := range rows {
		nilai := strings.ToUpper(row.NilaiHuruf)
		if pendingLC[strings.ToLower(row.MataKuliah)] {
			nilai = "(Isi Kuesioner Terlebih Dahulu)"
		}
		lines = append(lines, fmt.Sprintf("| %d | %s | %d | %s |", i+1, row.MataKuliah, row.SKS, nilai))
	}
	return strings.Join(lines, "\n")
}

// RenderScheduleAnswer renders the schedule table, optionally day-scoped.
func RenderScheduleAnswer(rows []ScheduleFact, dayFilter string) string {
	if len(rows) == 0 {
		suffix := ""
		if dayFilter != "" {
			suffix = " untuk **" + dayFilter + "**"
		}
		return "## Ringkasan\n" +
			"Maaf, data tidak ditemukan di dokumen Anda" + suffix + ".\n\n" +
			"## Opsi Lanjut\n" +
			"- Pastikan dokumen KRS/Jadwal sudah terunggah.\n" +
			"- Coba sebutkan hari yang ingin dicek, contoh: `jadwal hari senin`."
	}

	title := "## Ringkasan Jadwal"
	if dayFilter != "" {
		title += " " + dayFilter
	}
	lines := []string{
		title,
		fmt.Sprintf("- Total kelas: **%d**", len(rows)),
		"",
		"## Tabel",
		"| Hari | Jam | Mata Kuliah | Ruangan | Semester |",
		"|---|---|---|---|---:|",
	}
	for _, row := range rows {
		semester := "-"
		if row.Semester > 0 {
			semester = strconv.Itoa(row.Semester)
		}
		lines = append(lines, fmt.Sprintf("| %s | %s-%s | %s | %s | %s |",
			row.Hari, row.JamMulai, row.JamSelesai, row.MataKuliah, orDash(row.Ruangan), semester))
	}
	return strings.Join(lines, "\n")
}

func renderTranscriptSources(rows []TranscriptFact, max int) []Citation {
	var out []Citation
	seen := map[string]bool{}
	for _, row := range rows {
		label := citationLabel(row.Source, row.Page)
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, Citation{
			Source: label,
			Snippet: fmt.Sprintf("semester=%d | mata_kuliah=%s | sks=%d | nilai_huruf=%s",
				row.Semester, row.MataKuliah, row.SKS, row.NilaiHuruf),
		})
		if len(out) >= max {
			break
		}
	}
	return out
}

func renderScheduleSources(rows []ScheduleFact, max int) []Citation {
	var out []Citation
	seen := map[string]bool{}
	for _, row := range rows {
		label := citationLabel(row.Source, row.Page)
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, Citation{
			Source: label,
			Snippet: fmt.Sprintf("hari=%s | jam=%s-%s | mata_kuliah=%s | ruangan=%s",
				row.Hari, row.JamMulai, row.JamSelesai, row.MataKuliah, row.Ruangan),
		})
		if len(out) >= max {
			break
		}
	}
	return out
}

func citationLabel(source string, page int) string {
	if page > 0 {
		return fmt.Sprintf("%s (p.%d)", source, page)
	}
	return source
}

var (
	profileNamaRE     = regexp.MustCompile(`(?i)Nama\s*:\s*([A-Z ]+?)\s+Dosen\s+PA`)
	profileNIMRE      = regexp.MustCompile(`(?i)\bNIM\s*:?\s*(\d+)\b`)
	profileProdiMixRE = regexp.MustCompile(`(?i)Program\s+NIM\s*:?\s*\d+\s*:?\s*([A-Za-z ]+?)\s+Studi`)
	profileProdiRE    = regexp.MustCompile(`(?i)Program\s+Studi\s*:?\s*([A-Za-z ]+)`)
	profileSKSDoneRE  = regexp.MustCompile(`(?i)Jumlah\s+SKS\s+yang\s+telah\s+ditempuh\s*:?\s*(\d+)`)
	profileSKSNeedRE  = regexp.MustCompile(`(?i)SKS\s+yang\s+harus\s+ditempuh\s*:?\s*(\d+)`)
	profileIPKRE      = regexp.MustCompile(`(?i)\bIPK\s*:?\s*([0-9]+(?:\.[0-9]+)?)`)
	pendingCourseRE   = regexp.MustCompile(`(?i)\d{1,3}\s+[A-Z0-9]{5,12}\s+([A-Za-z .]+?)\s+\d{1,2}\s+ISI\s+KUI[SE]IONER`)
)

// ExtractTranscriptProfile mines identity and progress fields from the
// transcript's free-text chunks. Everything is best effort; a field that
// matches nothing stays at its placeholder value and nothing ever fails.
func ExtractTranscriptProfile(textChunks []string) TranscriptProfile {
	profile := TranscriptProfile{Nama: "-", NIM: "-", ProgramStudi: "-", SKSDitempuh: -1, SKSWajib: -1}

	var parts []string
	for _, c := range textChunks {
		if t := norm.Text(c); t != "" {
			parts = append(parts, t)
		}
	}
	merged := strings.Join(parts, " ")
	if merged == "" {
		return profile
	}

	if m := profileNamaRE.FindStringSubmatch(merged); m != nil {
		profile.Nama = norm.Text(m[1])
	}
	if m := profileNIMRE.FindStringSubmatch(merged); m != nil {
		profile.NIM = norm.Text(m[1])
	}
	if m := profileProdiMixRE.FindStringSubmatch(merged); m != nil {
		profile.ProgramStudi = norm.Text(m[1])
	} else if m := profileProdiRE.FindStringSubmatch(merged); m != nil {
		profile.ProgramStudi = norm.Text(m[1])
	}
	if m := profileSKSDoneRE.FindStringSubmatch(merged); m != nil {
		if n, ok := parseInt(m[1]); ok {
			profile.SKSDitempuh = n
		}
	}
	if m := profileSKSNeedRE.FindStringSubmatch(merged); m != nil {
		if n, ok := parseInt(m[1]); ok {
			profile.SKSWajib = n
		}
	}
	if m := profileIPKRE.FindStringSubmatch(merged); m != nil {
		profile.IPK = norm.Text(m[1])
	}
	seen := map[string]bool{}
	for _, m := range pendingCourseRE.FindAllStringSubmatch(merged, -1) {
		mk := norm.Text(m[1])
		key := strings.ToLower(mk)
		if mk != "" && !seen[key] {
			seen[key] = true
			profile.PendingCourses = append(profile.PendingCourses, mk)
		}
	}
	return profile
}

func pendingLine(pending []string) string {
	if len(pending) == 0 {
		return "- Mata kuliah belum dinilai: **-**"
	}
	return "- Mata kuliah belum dinilai: **" + strings.Join(pending, ", ") + "** (menunggu isi kuesioner)"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func intOrDash(n int) string {
	if n < 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

package extract

import (
	"testing"
)

func TestIsScheduleCandidate(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		columns []string
		want    bool
	}{
		{"krs title", "KRS Semester 3.pdf", nil, true},
		{"jadwal title", "jadwal kuliah genap", nil, true},
		{"columns only", "dokumen", []string{"Hari", "Jam", "Mata Kuliah"}, true},
		{"room column", "dokumen", []string{"No", "Ruang"}, true},
		{"unrelated", "laporan keuangan", []string{"Debit", "Kredit"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScheduleCandidate(tt.title, tt.columns); got != tt.want {
				t.Errorf("IsScheduleCandidate(%q, %v) = %v", tt.title, tt.columns, got)
			}
		})
	}
}

func TestIsTranscriptCandidate(t *testing.T) {
	if !IsTranscriptCandidate("KHS semester 2", nil) {
		t.Error("khs title should be a transcript candidate")
	}
	if !IsTranscriptCandidate("rekap", []string{"Mata Kuliah", "Nilai Huruf"}) {
		t.Error("nilai column should be a transcript candidate")
	}
	if IsTranscriptCandidate("daftar peserta", []string{"No", "Nama"}) {
		t.Error("plain roster is not a transcript candidate")
	}
}

func TestDetectDocType(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    []ScheduleRow
		want    string
	}{
		{"schedule columns", []string{"Hari", "Jam", "Mata Kuliah"}, nil, "schedule"},
		{"rows without columns", nil, []ScheduleRow{{Course: "Kalkulus"}}, "schedule"},
		{"transcript columns", []string{"Mata Kuliah", "Nilai"}, nil, "transcript"},
		{"schedule beats grade column", []string{"Hari", "Nilai"}, nil, "schedule"},
		{"general", []string{"No", "Keterangan"}, nil, "general"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDocType(tt.columns, tt.rows); got != tt.want {
				t.Errorf("DetectDocType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRowConfidence(t *testing.T) {
	full := ScheduleRow{
		Day: "Senin", Session: "I", Time: "07.00-08.40",
		Course: "Kalkulus", Lecturer: "Dr. Budi", Room: "A1", Class: "A", Semester: "3",
	}
	if score, issues := RowConfidence(full); score != 1.0 || len(issues) != 0 {
		t.Errorf("full row: score=%v issues=%v", score, issues)
	}

	bare := ScheduleRow{Day: "Senin", Time: "07.00-08.40"}
	score, issues := RowConfidence(bare)
	if score >= 0.5 {
		t.Errorf("row without course should score low, got %v", score)
	}
	found := false
	for _, iss := range issues {
		if iss == "missing_mata_kuliah" {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want missing_mata_kuliah", issues)
	}

	broken := ScheduleRow{Course: "Kalkulus", Time: "99.00-xx"}
	if _, issues := RowConfidence(broken); len(issues) == 0 {
		t.Error("invalid time should be reported")
	}
}

package main

import (
	"testing"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"jadwal", "hari", "senin", "--owner", "7", "--doc-id", "d1"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.owner != "7" || f.docID != "d1" {
		t.Errorf("flags = %+v", f)
	}
	if len(f.rest) != 3 || f.rest[0] != "jadwal" {
		t.Errorf("rest = %v", f.rest)
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	f, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.owner != "local" {
		t.Errorf("default owner = %q", f.owner)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	if _, err := parseFlags([]string{"--owner"}); err == nil {
		t.Error("expected error for missing value")
	}
	if _, err := parseFlags([]string{"--bogus", "x"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

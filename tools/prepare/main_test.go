package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRunCleansAndMerges(t *testing.T) {
	dir := t.TempDir()
	historical := filepath.Join(dir, "cons_def.csv")
	realtime := filepath.Join(dir, "tr.csv")
	writeFile(t, historical,
		"code_insee_region;libelle_region;nature;date;heure;date_heure;consommation\n"+
			"53;Bretagne;Données définitives;2020-01-01;00:00;2020-01-01T00:00:00+01:00;2000\n")
	writeFile(t, realtime,
		"code_insee_region;libelle_region;nature;date;heure;date_heure;consommation;pompage\n"+
			"28;Normandie;Données temps réel;2023-10-05;12:00;2023-10-05T12:00:00+02:00;3000;ND\n")

	out := filepath.Join(dir, "out")
	cfg, err := parseFlags([]string{"-in", historical + "," + realtime, "-out", out})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := run(cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	merged, err := os.ReadFile(filepath.Join(out, "eco2mix-regional.csv"))
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	want := "code_insee_region,libelle_region,date,date_heure,consommation\n" +
		"53,Bretagne,2020-01-01,2020-01-01T00:00:00+01:00,2000\n" +
		"28,Normandie,2023-10-05,2023-10-05T12:00:00+02:00,3000\n"
	if string(merged) != want {
		t.Fatalf("unexpected merged file:\n%s", merged)
	}

	if _, err := os.Stat(filepath.Join(out, "tr_clean.csv")); err != nil {
		t.Fatalf("cleaned copy missing: %v", err)
	}
}

func TestParseFlagsValidation(t *testing.T) {
	if _, err := parseFlags([]string{"-in", " , "}); err == nil || !strings.Contains(err.Error(), "--in") {
		t.Fatalf("expected --in error, got %v", err)
	}
	if _, err := parseFlags([]string{"-delimiter", ";;"}); err == nil || !strings.Contains(err.Error(), "--delimiter") {
		t.Fatalf("expected --delimiter error, got %v", err)
	}
}

package csvsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"eco2mix-insights/internal/energy/domain/dataset"
)

const sampleCSV = `code_insee_region,libelle_region,nature,date,heure,date_heure,consommation,thermique,nucleaire,eolien,solaire,hydraulique,bioenergies,ech_physiques
53,Bretagne,Données temps réel,2023-10-04,00:00,2023-10-04T00:00:00+02:00,2500,10,0,300,0,20,30,2140
28,Normandie,Données temps réel,2023-10-04,01:00,2023-10-04T01:00:00+02:00,4000,100,5000,ND,,50,-,-1200
53,Bretagne,Données temps réel,2023-10-07,12:00,2023-10-07T12:00:00+02:00,2600,11,0,280,90,21,31,2000
`

const plainHeader = "code_insee_region,libelle_region,date_heure,consommation,thermique,nucleaire,eolien,solaire,hydraulique,bioenergies,ech_physiques\n"

var cutoff = time.Date(2023, time.October, 5, 0, 0, 0, 0, time.UTC)

func TestParse_CommaDelimited(t *testing.T) {
	rows, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	normandie := rows[1]
	if normandie.RegionCode != "28" || normandie.RegionName != "Normandie" {
		t.Fatalf("unexpected region %s %s", normandie.RegionCode, normandie.RegionName)
	}
	if !normandie.Timestamp.Equal(time.Date(2023, 10, 3, 23, 0, 0, 0, time.UTC)) || normandie.Timestamp.Location() != time.UTC {
		t.Fatalf("unexpected timestamp %s", normandie.Timestamp)
	}
	if !normandie.Date.Equal(time.Date(2023, 10, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", normandie.Date)
	}
	if normandie.Consumption != 4000 || normandie.Exchange != -1200 {
		t.Fatalf("unexpected values %+v", normandie)
	}
	if want := (dataset.Production{Thermal: 100, Nuclear: 5000, Hydraulic: 50}); normandie.Production != want {
		t.Fatalf("unexpected production %+v", normandie.Production)
	}
}

func TestParse_SemicolonWithDecimalComma(t *testing.T) {
	input := "\ufeffCode INSEE région;Libellé;code_insee_region;libelle_region;date_heure;consommation;thermique;nucleaire;eolien;solaire;hydraulique;bioenergies;ech_physiques\n" +
		"x;y;84;Auvergne-Rhône-Alpes;2021-06-01T12:00:00+02:00;7000,5;1;9000;2;3,25;4;5;-6\n"
	rows, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.RegionName != "Auvergne-Rhône-Alpes" || row.Consumption != 7000.5 || row.Production.Solar != 3.25 {
		t.Fatalf("unexpected row %+v", row)
	}
	if !row.Date.IsZero() {
		t.Fatalf("expected no date column, got %s", row.Date)
	}
}

func TestParse_MissingColumn(t *testing.T) {
	input := "code_insee_region,libelle_region,date_heure,consommation,thermique,nucleaire,eolien,solaire,hydraulique,bioenergies\n"
	_, err := Parse(strings.NewReader(input))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "ech_physiques") {
		t.Fatalf("expected missing column name in %q", err)
	}
}

func TestParse_InvalidTimestampReportsLine(t *testing.T) {
	input := plainHeader +
		"53,Bretagne,2023-10-04T00:00:00+02:00,1,1,1,1,1,1,1,1\n" +
		"53,Bretagne,yesterday,1,1,1,1,1,1,1,1\n"
	_, err := Parse(strings.NewReader(input))
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line number in %q", err)
	}
}

func TestParse_InvalidNumber(t *testing.T) {
	input := plainHeader + "53,Bretagne,2023-10-04T00:00:00+02:00,lots,1,1,1,1,1,1,1\n"
	if _, err := Parse(strings.NewReader(input)); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestParse_NonFinite(t *testing.T) {
	input := plainHeader + "53,Bretagne,2023-10-04T00:00:00+02:00,12,Nan,NAN,nan,NaN,1,2,3\n"
	rows, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := (dataset.Production{Hydraulic: 1, Bioenergy: 2}); rows[0].Production != want {
		t.Fatalf("expected NaN cells to count as zero, got %+v", rows[0].Production)
	}

	for _, value := range []string{"Inf", "-inf", "infinity", "+Infinity"} {
		input := plainHeader +
			"53,Bretagne,2023-10-04T00:00:00+02:00,1,1,1,1,1,1,1,1\n" +
			"53,Bretagne,2023-10-04T01:00:00+02:00,1,1,1,1,1,1,1," + value + "\n"
		_, err := Parse(strings.NewReader(input))
		if !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("%s: expected ErrInvalidNumber, got %v", value, err)
		}
		if !strings.Contains(err.Error(), "line 3") {
			t.Fatalf("%s: expected line number in %q", value, err)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestLoader_LocalFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader, err := NewLoader(path, srv.URL, WithCutoff(cutoff))
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	ds, source, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if source != SourceLocal || hits.Load() != 0 {
		t.Fatalf("expected local source without remote hits, got %s/%d", source, hits.Load())
	}
	// The 2023-10-07 row is past the cutoff.
	if ds.HourlyLen() != 2 || ds.DailyLen() != 2 {
		t.Fatalf("unexpected row counts %d/%d", ds.HourlyLen(), ds.DailyLen())
	}
	if regions := ds.Regions(); !slices.Equal(regions, []string{"Bretagne", "Normandie"}) {
		t.Fatalf("unexpected regions %v", regions)
	}
}

func TestLoader_RemoteFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	missing := filepath.Join(t.TempDir(), "absent.csv")
	loader, err := NewLoader(missing, srv.URL, WithCutoff(cutoff), WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	ds, source, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if source != SourceRemote || !ds.Cutoff().Equal(cutoff) {
		t.Fatalf("unexpected source %s cutoff %s", source, ds.Cutoff())
	}
}

func TestLoader_RemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader, err := NewLoader(filepath.Join(t.TempDir(), "absent.csv"), srv.URL)
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	_, _, err = loader.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "http 500") {
		t.Fatalf("expected http 500 error, got %v", err)
	}
}

func TestLoader_MissingFileWithoutRemote(t *testing.T) {
	loader, err := NewLoader(filepath.Join(t.TempDir(), "absent.csv"), "")
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	_, source, err := loader.Load(context.Background())
	if err == nil || source != SourceLocal {
		t.Fatalf("expected local error, got %s/%v", source, err)
	}
}

func TestNewLoader_RequiresSource(t *testing.T) {
	if _, err := NewLoader("", ""); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

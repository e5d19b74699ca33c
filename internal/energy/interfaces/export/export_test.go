package export

import (
	"bytes"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"eco2mix-insights/internal/energy/domain/aggregate"
	"eco2mix-insights/internal/energy/domain/dataset"
)

func sampleSlice() dataset.Slice {
	return dataset.Slice{
		Resolution: dataset.ResolutionHourly,
		Records: []dataset.Record{
			{RegionCode: "53", RegionName: "Bretagne", At: time.Date(2023, 10, 5, 10, 0, 0, 0, time.UTC), Consumption: 2500.5,
				Production: dataset.Production{Thermal: 10, Wind: 300, Hydraulic: 20, Bioenergy: 30}, Exchange: 2140},
			{RegionCode: "28", RegionName: "Normandie", At: time.Date(2023, 10, 5, 10, 0, 0, 0, time.UTC), Consumption: 4000,
				Production: dataset.Production{Nuclear: 5000}, Exchange: -1200},
		},
	}
}

func TestWriteRecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordsCSV(&buf, sampleSlice()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if want := strings.Join(RecordHeader, ","); lines[0] != want {
		t.Fatalf("expected header %q, got %q", want, lines[0])
	}
	if want := "53,Bretagne,2023-10-05T10:00:00Z,2500.5,10,0,300,0,20,30,2140"; lines[1] != want {
		t.Fatalf("expected %q, got %q", want, lines[1])
	}
}

func TestBuildRecordsXLSX(t *testing.T) {
	data, err := BuildRecordsXLSX(sampleSlice())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(recordsSheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 || !slices.Equal(rows[0], RecordHeader) {
		t.Fatalf("unexpected sheet %v", rows)
	}
	if rows[2][1] != "Normandie" || rows[2][5] != "5000" {
		t.Fatalf("unexpected Normandie row %v", rows[2])
	}
}

func TestBuildRecordsParquet(t *testing.T) {
	data, err := BuildRecordsParquet(sampleSlice())
	if err != nil {
		t.Fatalf("build parquet: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Fatalf("missing parquet magic")
	}
}

func TestNewParquetRecord(t *testing.T) {
	rec := NewParquetRecord(sampleSlice().Records[1])
	if rec.RegionName != "Normandie" || rec.Nuclear != 5000 || rec.Exchange != -1200 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if want := time.Date(2023, 10, 5, 10, 0, 0, 0, time.UTC).UnixMilli(); rec.At != want {
		t.Fatalf("expected at %d, got %d", want, rec.At)
	}
}

func TestBuildReportPDF(t *testing.T) {
	slice := sampleSlice()
	sources := aggregate.ProductionBySource(slice)
	data, err := BuildReportPDF(Report{
		Period:      dataset.LastWeek(),
		Region:      dataset.AllRegions(),
		Summary:     aggregate.Summary{Cutoff: time.Date(2023, 10, 5, 0, 0, 0, 0, time.UTC), ConsumptionToday: 6500.5, ExchangeToday: 940},
		Sources:     sources,
		Mix:         aggregate.Mix(sources),
		GeneratedAt: time.Date(2023, 10, 6, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("missing pdf header")
	}
}

func TestFormatWatts(t *testing.T) {
	cases := map[float64]string{
		0:          "0.0 MW",
		999.94:     "999.9 MW",
		1000:       "1.0 GW",
		2_345_678:  "2.3 TW",
		-12_500:    "-12.5 GW",
		-1_500_000: "-1.5 TW",
	}
	for value, want := range cases {
		if got := FormatWatts(value); got != want {
			t.Fatalf("value %v: expected %q, got %q", value, want, got)
		}
	}
}

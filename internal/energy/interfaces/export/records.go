package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/xuri/excelize/v2"

	"eco2mix-insights/internal/energy/domain/dataset"
)

const recordsSheet = "records"

// RecordHeader is the column order shared by every record export.
var RecordHeader = []string{
	"code_insee_region",
	"libelle_region",
	"date_heure",
	"consommation",
	"thermique",
	"nucleaire",
	"eolien",
	"solaire",
	"hydraulique",
	"bioenergies",
	"ech_physiques",
}

// WriteRecordsCSV writes the slice as comma-delimited rows.
func WriteRecordsCSV(w io.Writer, slice dataset.Slice) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RecordHeader); err != nil {
		return err
	}
	for _, rec := range slice.Records {
		if err := writer.Write(recordFields(rec)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordFields(rec dataset.Record) []string {
	fields := []string{
		rec.RegionCode,
		rec.RegionName,
		rec.At.UTC().Format(time.RFC3339),
		formatFloat(rec.Consumption),
	}
	for _, src := range dataset.Sources() {
		fields = append(fields, formatFloat(rec.Production.Value(src)))
	}
	return append(fields, formatFloat(rec.Exchange))
}

// BuildRecordsXLSX renders the slice as a single-sheet workbook.
func BuildRecordsXLSX(slice dataset.Slice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return nil, err
	}

	for i, name := range RecordHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(recordsSheet, cell, name)
	}
	for i, rec := range slice.Records {
		row := i + 2
		values := []any{rec.RegionCode, rec.RegionName, rec.At.UTC().Format(time.RFC3339), rec.Consumption}
		for _, src := range dataset.Sources() {
			values = append(values, rec.Production.Value(src))
		}
		values = append(values, rec.Exchange)
		if err := f.SetSheetRow(recordsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParquetRecord is the Parquet row layout of a filtered record.
type ParquetRecord struct {
	RegionCode  string  `parquet:"name=code_insee_region,type=BYTE_ARRAY,convertedtype=UTF8"`
	RegionName  string  `parquet:"name=libelle_region,type=BYTE_ARRAY,convertedtype=UTF8"`
	At          int64   `parquet:"name=date_heure,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Consumption float64 `parquet:"name=consommation,type=DOUBLE"`
	Thermal     float64 `parquet:"name=thermique,type=DOUBLE"`
	Nuclear     float64 `parquet:"name=nucleaire,type=DOUBLE"`
	Wind        float64 `parquet:"name=eolien,type=DOUBLE"`
	Solar       float64 `parquet:"name=solaire,type=DOUBLE"`
	Hydraulic   float64 `parquet:"name=hydraulique,type=DOUBLE"`
	Bioenergy   float64 `parquet:"name=bioenergies,type=DOUBLE"`
	Exchange    float64 `parquet:"name=ech_physiques,type=DOUBLE"`
}

// NewParquetRecord converts a filtered record.
func NewParquetRecord(rec dataset.Record) ParquetRecord {
	p := rec.Production
	return ParquetRecord{
		RegionCode:  rec.RegionCode,
		RegionName:  rec.RegionName,
		At:          rec.At.UnixMilli(),
		Consumption: rec.Consumption,
		Thermal:     p.Thermal,
		Nuclear:     p.Nuclear,
		Wind:        p.Wind,
		Solar:       p.Solar,
		Hydraulic:   p.Hydraulic,
		Bioenergy:   p.Bioenergy,
		Exchange:    rec.Exchange,
	}
}

// BuildRecordsParquet renders the slice as a Snappy-compressed Parquet file.
func BuildRecordsParquet(slice dataset.Slice) (data []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(ParquetRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("export: parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range slice.Records {
		if err := pw.Write(NewParquetRecord(rec)); err != nil {
			return nil, fmt.Errorf("export: parquet write: %w", err)
		}
	}

	// WriteStop can panic on internal encoder errors.
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("export: parquet stop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("export: parquet stop: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eco2mix-insights/internal/energy/infrastructure/preprocess"
)

type config struct {
	inputs []string
	outDir string
	merged string
	comma  rune
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseFlags(args []string) (config, error) {
	var (
		cfg    config
		inputs string
		comma  string
	)
	fs := flag.NewFlagSet("prepare", flag.ContinueOnError)
	fs.StringVar(&inputs, "in", "eCO2mix_RTE_Regional_cons_def.csv,eCO2mix_RTE_Regional_tr.csv", "comma separated raw exports")
	fs.StringVar(&cfg.outDir, "out", "./data", "directory for the cleaned exports")
	fs.StringVar(&cfg.merged, "merged", "eco2mix-regional.csv", "merged output file name, relative to --out")
	fs.StringVar(&comma, "delimiter", ";", "delimiter of the raw exports")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	for _, path := range strings.Split(inputs, ",") {
		if path = strings.TrimSpace(path); path != "" {
			cfg.inputs = append(cfg.inputs, path)
		}
	}
	if len(cfg.inputs) == 0 {
		return cfg, errors.New("missing --in")
	}
	if cfg.merged == "" {
		return cfg, errors.New("missing --merged")
	}
	runes := []rune(comma)
	if len(runes) != 1 {
		return cfg, fmt.Errorf("--delimiter must be a single character, got %q", comma)
	}
	cfg.comma = runes[0]
	return cfg, nil
}

// run cleans every input into outDir and writes their concatenation.
func run(cfg config) error {
	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	tables := make([]preprocess.Table, 0, len(cfg.inputs))
	for _, path := range cfg.inputs {
		table, err := readTable(path, cfg.comma)
		if err != nil {
			return err
		}
		table = table.Drop(preprocess.UnusedColumns)

		cleaned := filepath.Join(cfg.outDir, cleanedName(path))
		if err := writeTable(cleaned, table); err != nil {
			return err
		}
		fmt.Printf("cleaned %s: %d rows -> %s\n", path, len(table.Rows), cleaned)
		tables = append(tables, table)
	}

	merged := preprocess.Concat(tables...)
	target := filepath.Join(cfg.outDir, cfg.merged)
	if err := writeTable(target, merged); err != nil {
		return err
	}
	fmt.Printf("merged %d files: %d rows -> %s\n", len(tables), len(merged.Rows), target)
	return nil
}

func readTable(path string, comma rune) (preprocess.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return preprocess.Table{}, err
	}
	defer file.Close()
	table, err := preprocess.Read(file, comma)
	if err != nil {
		return preprocess.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

func writeTable(path string, table preprocess.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := preprocess.Write(file, table); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return file.Close()
}

func cleanedName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_clean" + ext
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"

	"pivotgrid/app/cache"
	"pivotgrid/app/dataset"
	"pivotgrid/app/interfaces"
	"pivotgrid/app/pivot"
	"pivotgrid/app/settings"
)

const version = "0.1.0"

// pathList collects repeatable path flags. Segments within one path are
// separated by "/".
type pathList [][]string

func (p *pathList) String() string {
	parts := make([]string, len(*p))
	for i, path := range *p {
		parts[i] = strings.Join(path, "/")
	}
	return strings.Join(parts, ",")
}

func (p *pathList) Set(value string) error {
	*p = append(*p, strings.Split(value, "/"))
	return nil
}

func main() {
	filePath := flag.String("file", "", "Path to dataset file (csv, json or xlsx, optionally compressed)")
	configPath := flag.String("config", "", "Path to pivot configuration JSON")
	listDatasets := flag.Bool("datasets", false, "List datasets under the data directory and exit")
	showFields := flag.Bool("fields", false, "Print inferred fields for --file and exit")
	valuesField := flag.String("values", "", "Print distinct values of the given field and exit")
	validateOnly := flag.Bool("validate", false, "Check the configuration against the data and exit")
	showStats := flag.Bool("stats", false, "Print cache statistics after computing")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	showVersion := flag.Bool("version", false, "Print version and exit")

	var expand pathList
	var drillRow, drillCol pathList
	flag.Var(&expand, "expand", "Expand a row group path, e.g. North or North/Widgets (repeatable)")
	flag.Var(&drillRow, "drillrow", "Row path of the cell to drill into")
	flag.Var(&drillCol, "drillcol", "Column path of the cell to drill into")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pivotgrid: cross-tabulation over flat datasets

Usage:
  pivotgrid --file sales.csv --config pivot.json
  pivotgrid --file sales.csv --config pivot.json --expand North --expand North/Widgets
  pivotgrid --file sales.csv --config pivot.json --drillrow North/Widgets --drillcol 2024
  pivotgrid --file sales.csv --fields
  pivotgrid --datasets

Flags:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("pivotgrid %s\n", version)
		os.Exit(0)
	}

	cfg := settings.GetEffectiveSettings()
	logger := newConsoleLogger(cfg.LogLevel)
	if err := settings.EnsureInstanceID(&cfg); err != nil {
		logger.Log("warning", fmt.Sprintf("[SETTINGS_SAVE] Could not persist instance id: %v", err))
	}

	if *listDatasets {
		infos, err := dataset.Discover(cfg.DataDir)
		if err != nil {
			fatalf("Dataset discovery failed: %v", err)
		}
		writeOutput(*outFile, infos)
		return
	}

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		flag.Usage()
		os.Exit(1)
	}

	ds, err := dataset.Load(*filePath)
	if err != nil {
		fatalf("Failed to load dataset: %v", err)
	}
	logger.Log("info", fmt.Sprintf("[DATASET_LOAD] %s: %d rows, %d fields", ds.ID, len(ds.Rows), len(ds.Fields)))

	if *showFields {
		writeOutput(*outFile, ds.Fields)
		return
	}

	if *valuesField != "" {
		writeOutput(*outFile, dataset.FieldValues(ds.Rows, *valuesField, 0))
		return
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --config is required")
		flag.Usage()
		os.Exit(1)
	}

	pivotCfg, err := loadConfiguration(*configPath)
	if err != nil {
		fatalf("Failed to load configuration: %v", err)
	}

	if *validateOnly {
		problems := pivot.ValidateConfiguration(pivotCfg, ds.Rows)
		writeOutput(*outFile, map[string]any{
			"valid":    len(problems) == 0,
			"problems": problems,
		})
		return
	}

	var resultCache *cache.Cache
	if cfg.EnableResultCache {
		resultCache = cache.NewCacheWithLogger(
			int64(cfg.CacheSizeLimitMB)*1024*1024,
			time.Duration(cfg.CacheTTLMinutes)*time.Minute,
			logger,
		)
	}
	engine := pivot.New(resultCache, cfg.BatchSize, logger)

	if len(drillRow) > 0 || len(drillCol) > 0 {
		var rowPath, colPath []string
		if len(drillRow) > 0 {
			rowPath = drillRow[0]
		}
		if len(drillCol) > 0 {
			colPath = drillCol[0]
		}
		writeOutput(*outFile, engine.DrillDown(ds.Rows, pivotCfg, rowPath, colPath))
		return
	}

	result, err := engine.ComputeCached(ds.Rows, pivotCfg, expand)
	if err != nil {
		fatalf("Computation failed: %v", err)
	}

	writeOutput(*outFile, result.Structure)

	if *showStats {
		stats := engine.CacheStats()
		fmt.Fprintln(os.Stderr, oj.JSON(stats, 2))
	}
}

func loadConfiguration(path string) (*interfaces.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &interfaces.Configuration{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeOutput(outFile string, v any) {
	out := oj.JSON(v, 2)
	if outFile == "" {
		fmt.Println(out)
		return
	}
	if err := os.WriteFile(outFile, []byte(out+"\n"), 0o644); err != nil {
		fatalf("Failed to write output file: %v", err)
	}
	log.Printf("[OUTPUT] Written to %s", outFile)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// consoleLogger writes levelled lines through the standard logger.
type consoleLogger struct {
	min int
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warning": 2, "error": 3}

func newConsoleLogger(level string) *consoleLogger {
	rank, ok := levelRank[level]
	if !ok {
		rank = levelRank["info"]
	}
	return &consoleLogger{min: rank}
}

func (l *consoleLogger) Log(level, message string) {
	rank, ok := levelRank[level]
	if !ok {
		rank = levelRank["info"]
	}
	if rank >= l.min {
		log.Printf("[%s] %s", strings.ToUpper(level), message)
	}
}

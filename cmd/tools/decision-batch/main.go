// cmd/tools/decision-batch/main.go
//
// decision-batch re-runs the decision stage over a validation-results
// document, without touching extraction or validation. Useful for
// replaying decisions after a policy change.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eligibility-workers/internal/common/config"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/models"
	decideeligibility "eligibility-workers/internal/workers/decision/decide-eligibility"
	"eligibility-workers/pkg/report"
	"eligibility-workers/pkg/validationfile"
)

func main() {
	inputPath := flag.String("input", "", "Path to the validation results file (default: pipeline.validation_file from config)")
	outputDir := flag.String("output", "./decisions", "Directory for per-application decision files")
	ids := flag.String("ids", "", "Comma-separated application ids to decide (default: all in the file)")
	flag.Parse()

	input, err := resolveInput(*inputPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	file, err := validationfile.Load(input)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	selected := file.ApplicationIDs()
	if *ids != "" {
		selected = nil
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				selected = append(selected, id)
			}
		}
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Printf("Error: create output dir: %v\n", err)
		os.Exit(1)
	}

	handler := decideeligibility.NewHandler(
		decideeligibility.LoadConfig(),
		decideeligibility.WeightedLinearModel{},
		log,
	)

	// One timestamp for the whole run keeps replays reproducible within a day.
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	ctx := context.Background()

	records := make([]models.DecisionRecord, 0, len(selected))
	for _, id := range selected {
		result, _ := file.Lookup(id)

		out, err := handler.Execute(ctx, &decideeligibility.Input{
			ApplicationID: id,
			Result:        result,
			AsOf:          asOf,
		})
		if err != nil {
			fmt.Printf("Error: decide %s: %v\n", id, err)
			os.Exit(1)
		}

		record := out.Decision.ToRecord()
		records = append(records, record)

		if err := writeRecord(*outputDir, record); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Decided %d applications from %s\n\n", len(records), input)
	fmt.Print(report.Summarize(records).Render())
}

// resolveInput prefers the -input flag, then the configured
// pipeline.validation_file path.
func resolveInput(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("no -input given and config not loadable: %w", err)
	}
	return resolveConfiguredInput(cfg.Pipeline.ValidationFile)
}

func resolveConfiguredInput(configured string) (string, error) {
	if configured == "" {
		return "", fmt.Errorf("no validation results file: pass -input or set pipeline.validation_file")
	}
	return configured, nil
}

func writeRecord(dir string, record models.DecisionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal decision %s: %w", record.ApplicationID, err)
	}

	path := filepath.Join(dir, record.ApplicationID+"_decision.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write decision %s: %w", record.ApplicationID, err)
	}
	return nil
}

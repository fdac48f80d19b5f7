package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trustsla/cloudsla-bench/internal/bench/metrics"
)

// ScenarioCreation is the suite entry every other scenario depends on.
const ScenarioCreation = "cloud-sla-creation-activation"

// Result is the outcome of one scenario run.
type Result struct {
	Name     string
	OK       bool
	Duration time.Duration
}

type scenario struct {
	name string
	run  func(context.Context, common.Address) bool
}

// suiteOrder lists the scenarios in dependency order: the integrity
// check of test.pdf must precede its deletion, the read-deny needs
// test2.pdf uploaded first, and the corrupted check reuses test3.pdf.
func (r *Runner) suiteOrder() []scenario {
	return []scenario{
		{"upload", r.Upload},
		{"read", r.Read},
		{"file-check-undeleted", r.FileCheckUndeletedFile},
		{"delete", r.Delete},
		{"another-file-upload", r.AnotherFileUpload},
		{"read-deny-lost-file-check", r.ReadDenyLostFileCheck},
		{"another-file-upload-read", r.AnotherFileUploadRead},
		{"corrupted-file-check", r.CorruptedFileCheck},
	}
}

// Names returns the selectable scenario names in suite order.
func Names() []string {
	var r Runner
	names := []string{ScenarioCreation}
	for _, sc := range r.suiteOrder() {
		names = append(names, sc.name)
	}
	return names
}

// Suite runs every scenario in order. It always starts with the
// creation scenario since the others operate on the agreement address
// it yields.
func (r *Runner) Suite(ctx context.Context) ([]Result, bool) {
	return r.Run(ctx)
}

// Run executes the named scenarios, or the full suite when no names
// are given. The creation scenario always runs first; when it fails
// the dependent scenarios are not attempted.
func (r *Runner) Run(ctx context.Context, names ...string) ([]Result, bool) {
	selected, err := r.selectScenarios(names)
	if err != nil {
		r.logger.Error("Invalid scenario selection", "error", err)
		return nil, false
	}

	start := time.Now()
	cloudAddress, ok := r.CreationActivation(ctx)
	results := []Result{{Name: ScenarioCreation, OK: ok, Duration: time.Since(start)}}
	metrics.RecordScenario(ScenarioCreation, ok)
	r.logResult(results[0])

	if !ok {
		r.logger.Error("Agreement creation failed, skipping dependent scenarios")
		return results, false
	}

	allOK := true
	for _, sc := range selected {
		start := time.Now()
		scOK := sc.run(ctx, cloudAddress)

		result := Result{Name: sc.name, OK: scOK, Duration: time.Since(start)}
		results = append(results, result)
		metrics.RecordScenario(sc.name, scOK)
		r.logResult(result)

		allOK = allOK && scOK
	}

	return results, allOK
}

func (r *Runner) selectScenarios(names []string) ([]scenario, error) {
	order := r.suiteOrder()
	if len(names) == 0 {
		return order, nil
	}

	byName := make(map[string]scenario, len(order))
	for _, sc := range order {
		byName[sc.name] = sc
	}

	var selected []scenario
	for _, name := range names {
		if name == ScenarioCreation {
			// Always runs first, nothing to add.
			continue
		}
		sc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

func (r *Runner) logResult(result Result) {
	if result.OK {
		r.logger.Info("Scenario passed", "scenario", result.Name, "duration", result.Duration)
	} else {
		r.logger.Warn("Scenario failed", "scenario", result.Name, "duration", result.Duration)
	}
}

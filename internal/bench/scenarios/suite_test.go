package scenarios

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteRunsAllScenarios(t *testing.T) {
	f := newFixture(t)
	f.expectAgreementLookup(agreementAddress)

	results, ok := f.runner.Suite(context.Background())

	assert.True(t, ok)
	require.Len(t, results, 9)
	assert.Equal(t, ScenarioCreation, results[0].Name)
	for _, result := range results {
		assert.True(t, result.OK, "scenario %s", result.Name)
	}

	// 2 creation steps + 3+2+3+2 (upload/read/check/delete)
	// + 3+2 (re-upload/deny) + 5 (upload+read) + 3 (corrupted check)
	assert.Len(t, f.submitter.requests, 25)
}

func TestSuiteStopsWhenCreationFails(t *testing.T) {
	f := newFixture(t)
	f.expectAgreementLookup(common.Address{})

	results, ok := f.runner.Suite(context.Background())

	assert.False(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, ScenarioCreation, results[0].Name)
	assert.False(t, results[0].OK)
}

func TestSuiteReportsFailedScenario(t *testing.T) {
	// Step 3 is the first upload step, failing it fails the upload
	// scenario but the suite keeps going.
	f := newFixture(t, 1, 1, 0)
	f.expectAgreementLookup(agreementAddress)

	results, ok := f.runner.Suite(context.Background())

	assert.False(t, ok)
	require.Len(t, results, 9)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK, "upload scenario fails")
	assert.True(t, results[2].OK, "later scenarios still run")
}

func TestRunSelectsScenarios(t *testing.T) {
	f := newFixture(t)
	f.expectAgreementLookup(agreementAddress)

	results, ok := f.runner.Run(context.Background(), "upload", "read")

	assert.True(t, ok)
	require.Len(t, results, 3)
	assert.Equal(t, ScenarioCreation, results[0].Name)
	assert.Equal(t, "upload", results[1].Name)
	assert.Equal(t, "read", results[2].Name)
}

func TestRunRejectsUnknownScenario(t *testing.T) {
	f := newFixture(t)

	results, ok := f.runner.Run(context.Background(), "no-such-scenario")
	assert.False(t, ok)
	assert.Nil(t, results)
	assert.Empty(t, f.submitter.requests)
}

func TestScenarioNames(t *testing.T) {
	names := Names()
	assert.Equal(t, ScenarioCreation, names[0])
	assert.Contains(t, names, "corrupted-file-check")
	assert.Len(t, names, 9)
}

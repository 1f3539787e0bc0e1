package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenarios copies testdata into a temp dir so golden files can be
// written without touching the repository.
func copyScenarios(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"scenarios", "vehicles"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
		entries, err := os.ReadDir(filepath.Join("testdata", sub))
		require.NoError(t, err)
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join("testdata", sub, e.Name()))
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(filepath.Join(dir, sub, e.Name()), data, 0644))
		}
	}
	return filepath.Join(dir, "scenarios")
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := executeTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassingScenarios(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/scenarios")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ twin_burn")
	assert.Contains(t, out, "✓ dry_faults")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommandSingleFileJSON(t *testing.T) {
	out, err := executeTest(t, "json", "testdata/scenarios/twin_burn.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, "twin_burn", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeTest(t, "text", "testdata/scenarios", "--filter", "dry*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ dry_faults")
	assert.NotContains(t, out, "twin_burn")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := executeTest(t, "text", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := copyScenarios(t)
	failing := `name: wrong_level
vehicle: ../vehicles/twin.cue
steps:
  - fire: 1
assertions:
  - type: tank_level
    tank: rp1
    expect: 500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_level.yaml"), []byte(failing), 0644))

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_level")
	assert.Contains(t, out, "Assertion failed: tank_level (rp1)")
	assert.Contains(t, out, "1 failed")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\nbogus: 1\n"), 0644))

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := copyScenarios(t)

	_, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)

	goldenPath := filepath.Join(dir, "golden", "twin_burn.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "twin_burn"`)

	// The same run matches its golden file.
	out, err := executeTest(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 passed")

	// A tampered golden file fails.
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestFindScenarioFiles_SkipsGoldenAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	for _, f := range []string{"a.yaml", "b.yml", "notes.txt", "golden/c.yaml", "nested/d.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		rel, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{"a.yaml", "b.yml", "nested/d.yaml"}, names)
}

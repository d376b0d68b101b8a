package lua

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCase represents a single test case from JSON
type testCase struct {
	Name           string   `json:"name"`
	SetupLua       any      `json:"setup_lua"`
	Frames         int      `json:"frames"`
	FrameMS        int      `json:"frame_ms"`
	ExpectedOutput []string `json:"expected_output"`
}

type testDataFile struct {
	Tests []testCase `json:"tests"`
}

// setupTest creates an initialized engine on a mock host.
func setupTest(t *testing.T) (*Engine, *MockHost) {
	t.Helper()

	host := NewMockHost()
	engine := NewEngine(host, host)
	require.NoError(t, engine.Init())
	t.Cleanup(engine.Close)

	return engine, host
}

func loadTestData(t *testing.T, filename string) testDataFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	require.NoError(t, err)

	var testData testDataFile
	require.NoError(t, json.Unmarshal(data, &testData))
	return testData
}

// setupCode accepts a string or a list of lines, run as one chunk.
func setupCode(t *testing.T, setup any) string {
	t.Helper()
	switch v := setup.(type) {
	case string:
		return v
	case []any:
		lines := make([]string, len(v))
		for i, line := range v {
			lines[i] = line.(string)
		}
		return strings.Join(lines, "\n")
	}
	t.Fatalf("unsupported setup_lua %T", setup)
	return ""
}

func TestFeatures(t *testing.T) {
	for _, tt := range loadTestData(t, "coro.json").Tests {
		t.Run(tt.Name, func(t *testing.T) {
			engine, host := setupTest(t)

			require.NoError(t, engine.DoString("setup", setupCode(t, tt.SetupLua)))
			for range tt.Frames {
				host.Tick(time.Duration(tt.FrameMS) * time.Millisecond)
			}

			assert.Equal(t, tt.ExpectedOutput, host.Prints())
			assert.Empty(t, host.Faults)
		})
	}
}

func TestCallbackErrorBecomesFault(t *testing.T) {
	engine, host := setupTest(t)

	require.NoError(t, engine.DoString("setup", `
		bad = coro.after(0.1, function() error("kaboom") end)
		coro.every(0.1, function() print("alive") end)
	`))
	host.Tick(100 * time.Millisecond)
	host.Tick(100 * time.Millisecond)

	require.Len(t, host.Faults, 1)
	var cbErr *CallbackError
	require.True(t, errors.As(host.Faults[0].Err, &cbErr))
	assert.Contains(t, cbErr.Error(), "kaboom")
	assert.Equal(t, []string{"alive", "alive"}, host.Prints())

	bad := engine.L.GetGlobal("bad")
	assert.EqualValues(t, host.Faults[0].ID, bad)
}

func TestArgumentErrorsSurfaceFromDoString(t *testing.T) {
	engine, host := setupTest(t)

	err := engine.DoString("bad_args", `coro.after("soon", function() end)`)

	require.Error(t, err)
	assert.Zero(t, host.StartCalls)
}

func TestNowAndFrame(t *testing.T) {
	engine, host := setupTest(t)
	host.Tick(250 * time.Millisecond)
	host.Tick(250 * time.Millisecond)

	require.NoError(t, engine.DoString("clock", `print(coro.now(), coro.frame())`))
	assert.Equal(t, []string{"0.5\t2"}, host.Prints())
}

func TestInitStopsPreviousRoutines(t *testing.T) {
	engine, host := setupTest(t)
	require.NoError(t, engine.DoString("setup", `coro.every(0.1, function() print("old") end)`))
	require.Equal(t, 1, host.Active())

	require.NoError(t, engine.Init())
	host.Tick(time.Second)

	assert.Zero(t, host.Active())
	assert.Empty(t, host.Prints())
}

func TestCompiledChunksAreCached(t *testing.T) {
	engine, _ := setupTest(t)

	for range 3 {
		require.NoError(t, engine.DoString("same", `x = (x or 0) + 1`))
	}
	require.NoError(t, engine.Init())
	require.NoError(t, engine.DoString("same", `x = (x or 0) + 1`))

	assert.Equal(t, 1, engine.chunks.Len())
	assert.EqualValues(t, 1, engine.L.GetGlobal("x"))
}

func TestDoFileCanRequireNeighbours(t *testing.T) {
	engine, host := setupTest(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helper.lua"), []byte(`return { greet = function() print("hi") end }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(`local h = require("helper"); coro.defer(h.greet)`), 0o644))

	require.NoError(t, engine.LoadFiles([]string{filepath.Join(dir, "main.lua")}))

	assert.Equal(t, []string{"hi"}, host.Prints())
}

func TestLoadFilesReportsFailingPath(t *testing.T) {
	engine, _ := setupTest(t)
	missing := filepath.Join(t.TempDir(), "missing.lua")

	err := engine.LoadFiles([]string{missing})

	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bcistim/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ssmvepProtocol = `
paradigm: ssmvep
units: pix
num_trials: 3
stimulus_size: [160, 160]
frequencies: [10, 7.5]
positions: [[-320, 0], [320, 0]]
cue_period: 2
stimulation_period: 8
break_period: 5
refresh_rate: 60
seed: 11
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "protocol.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmd_hasSubcommands(t *testing.T) {
	root := NewRootCmd("test")
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "present", "validate", "sequence"} {
		assert.True(t, names[want], "expected subcommand %q", want)
	}
	assert.Equal(t, "test", root.Version)
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("x")))
	assert.Equal(t, ExitInvalidConfig, ExitCode(fmt.Errorf("load: %w", engine.ErrInvalidConfig)))
	assert.Equal(t, ExitAborted, ExitCode(&exitError{code: ExitAborted, msg: "aborted"}))
}

func TestSequenceCmd(t *testing.T) {
	path := writeConfig(t, ssmvepProtocol)

	out, err := execute(t, "sequence", "--config", path)
	require.NoError(t, err)
	ids := strings.Split(strings.TrimSpace(out), ",")
	require.Len(t, ids, 6)
	assert.Equal(t, 3, strings.Count(out, "1"))
	assert.Equal(t, 3, strings.Count(out, "2"))

	again, err := execute(t, "sequence", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, out, again, "seeded protocol is reproducible")
}

func TestValidateCmd(t *testing.T) {
	out, err := execute(t, "validate", "-c", writeConfig(t, ssmvepProtocol))
	require.NoError(t, err)
	assert.Contains(t, out, "ssmvep (pix units)")
	assert.Contains(t, out, "480 stimulation")
	assert.Contains(t, out, "about 90s")
}

func TestValidateCmd_invalid(t *testing.T) {
	body := strings.Replace(ssmvepProtocol, "refresh_rate: 60", "refresh_rate: 0", 1)
	_, err := execute(t, "validate", "-c", writeConfig(t, body))
	require.Error(t, err)
	assert.Equal(t, ExitInvalidConfig, ExitCode(err))
}

func TestValidateCmd_missingImages(t *testing.T) {
	body := strings.Replace(ssmvepProtocol, "paradigm: ssmvep", "paradigm: cams\nassets_dir: "+filepath.Join(t.TempDir(), "none"), 1)
	_, err := execute(t, "validate", "-c", writeConfig(t, body))
	assert.ErrorIs(t, err, engine.ErrResourceAcquisition)
}

func TestReport_roundTrip(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, engine.Result{
		RunID:      "abc",
		State:      engine.StateAborted,
		Trials:     2,
		OutputPath: "/tmp/cams_timestamps_event_id_1.csv",
		Events:     make([]engine.EventRecord, 9),
	})
	report := parseReport(strings.NewReader("noise\n" + buf.String()))
	assert.Equal(t, map[string]string{
		"run_id": "abc",
		"state":  "aborted",
		"trials": "2",
		"events": "9",
		"output": "/tmp/cams_timestamps_event_id_1.csv",
	}, report)
}

func TestPresenterCommand(t *testing.T) {
	s := presenterCommand(presentOptions{configPath: "p.yaml", runID: "r1", dlpDevice: "/dev/ttyUSB0", dlpBaud: 9600}, "debug", "json")
	assert.NotEmpty(t, s.path)
	assert.Equal(t, []string{"present",
		"--run-id", "r1",
		"--log-level", "debug",
		"--log-format", "json",
		"--config", "p.yaml",
		"--dlp", "/dev/ttyUSB0", "--dlp-baud", "9600",
	}, s.args)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

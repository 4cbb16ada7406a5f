package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledWhenPathEmpty(t *testing.T) {
	r := New("")
	assert.Nil(t, r)
	assert.False(t, r.Enabled())

	// Every method must be safe on the nil recorder.
	r.SetRunInfo("exp-a1b2c3d", "PowderProfiles", "oai-nos1-wired", "native")
	r.RecordSuccess(true)
	r.RecordPhase("provision", time.Second)
	r.RecordReadyWait(time.Minute)
	r.RecordSSHAttempts(2)
	assert.NoError(t, r.Write())
}

func TestRecorder_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powder_runner.prom")
	r := New(path)
	require.True(t, r.Enabled())

	r.SetRunInfo("exp-a1b2c3d", "PowderProfiles", "oai-nos1-wired", "native")
	r.RecordSuccess(true)
	r.RecordPhase("provision", 310*time.Second)
	r.RecordPhase("verify", 12*time.Second)
	r.RecordReadyWait(142500 * time.Millisecond)
	r.RecordSSHAttempts(3)

	require.NoError(t, r.Write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "# TYPE powder_run_success gauge")
	assert.Contains(t, out, "powder_run_success 1")
	assert.Contains(t, out,
		`powder_run_info{experiment="exp-a1b2c3d",mode="native",profile="oai-nos1-wired",project="PowderProfiles"} 1`)
	assert.Contains(t, out, `powder_run_phase_duration_seconds{phase="provision"} 310`)
	assert.Contains(t, out, `powder_run_phase_duration_seconds{phase="verify"} 12`)
	assert.Contains(t, out, "powder_experiment_ready_wait_seconds 142.5")
	assert.Contains(t, out, "powder_ssh_connect_attempts 3")
	assert.Contains(t, out, "powder_run_completed_timestamp_seconds")
}

func TestRecorder_FailureRecordsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powder_runner.prom")
	r := New(path)

	r.RecordSuccess(false)
	require.NoError(t, r.Write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "powder_run_success 0")
}

func TestRecorder_RewriteReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powder_runner.prom")
	r := New(path)

	r.RecordSuccess(false)
	require.NoError(t, r.Write())

	r.RecordSuccess(true)
	require.NoError(t, r.Write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "powder_run_success 1")
	assert.NotContains(t, string(data), "powder_run_success 0")
}

func TestRecorder_WriteBadPath(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing-dir", "powder_runner.prom"))

	err := r.Write()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics file")
}

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/repodoc/internal/job"
)

func newTestAppContext(t *testing.T) *AppContext {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OUTPUT_DIR", t.TempDir())
	t.Setenv("CLONE_DIR", t.TempDir())

	appCtx, err := NewAppContext("", "")
	require.NoError(t, err)
	return appCtx
}

func TestRenderJobStatus_UnknownJob(t *testing.T) {
	appCtx := newTestAppContext(t)

	out := renderJobStatus(appCtx, "0f0e1d2c-unknown")

	// 未知のIDはエラーではなく案内として表示される
	assert.Contains(t, out, "No such job: 0f0e1d2c-unknown")
	assert.Contains(t, out, "job show --id 0f0e1d2c-unknown")
	assert.NotContains(t, out, "Error")
}

func TestRenderJobStatus_KnownJob(t *testing.T) {
	appCtx := newTestAppContext(t)

	id := appCtx.Orchestrator.CreateJob(job.Request{RepoURL: "https://github.com/user/demo"})
	out := renderJobStatus(appCtx, id)

	assert.Contains(t, out, "Job ID:    "+id)
	assert.Contains(t, out, "Status:    pending")
	assert.Contains(t, out, "Progress:  0%")
	assert.Contains(t, out, "Message:   Job created")
}

package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, maxSizeBytes int64) *Fetcher {
	t.Helper()
	return NewFetcher(t.TempDir(), maxSizeBytes, time.Minute, nil)
}

func TestFetcher_ValidateReference(t *testing.T) {
	f := newTestFetcher(t, 1<<30)

	tests := []struct {
		name      string
		reference string
		want      bool
	}{
		{"github https", "https://github.com/user/repo", true},
		{"gitlab https", "https://gitlab.com/group/repo.git", true},
		{"unknown host is advisory only", "https://git.example.com/user/repo", true},
		{"missing scheme", "github.com/user/repo", false},
		{"missing host", "https:///repo", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ValidateReference(tt.reference))
		})
	}
}

func TestFetcher_Fetch_InvalidReference(t *testing.T) {
	f := newTestFetcher(t, 1<<30)

	_, err := f.Fetch(context.Background(), "not a url", "job-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)

	// 参照が不正な場合はリソースを一切使わない
	_, found := f.RepoPath("job-1")
	assert.False(t, found)
}

func TestFetcher_EnforceSizeLimit(t *testing.T) {
	f := newTestFetcher(t, 10) // 上限10バイト

	jobID := "job-size"
	dest := filepath.Join(f.cloneDir, jobID, "repo")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "big.bin"), make([]byte, 1024), 0o644))

	_, err := f.enforceSizeLimit(dest, jobID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSizeExceeded)

	// サイズ超過時はジョブ用ディレクトリが残らない
	_, statErr := os.Stat(filepath.Join(f.cloneDir, jobID))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetcher_EnforceSizeLimit_WithinLimit(t *testing.T) {
	f := newTestFetcher(t, 1<<20)

	jobID := "job-ok"
	dest := filepath.Join(f.cloneDir, jobID, "repo")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "small.txt"), []byte("ok"), 0o644))

	size, err := f.enforceSizeLimit(dest, jobID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestFetcher_Cleanup_Idempotent(t *testing.T) {
	f := newTestFetcher(t, 1<<30)

	jobID := "job-clean"
	dest := filepath.Join(f.cloneDir, jobID, "repo")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "file.txt"), []byte("x"), 0o644))

	f.Cleanup(jobID)
	_, err := os.Stat(filepath.Join(f.cloneDir, jobID))
	assert.True(t, os.IsNotExist(err))

	// 2回目の呼び出し、および未取得のジョブIDに対しても何も起きない
	f.Cleanup(jobID)
	f.Cleanup("never-fetched")
}

func TestFetcher_Cleanup_ReadOnlyFiles(t *testing.T) {
	f := newTestFetcher(t, 1<<30)

	jobID := "job-readonly"
	objectsDir := filepath.Join(f.cloneDir, jobID, "repo", ".git", "objects")
	require.NoError(t, os.MkdirAll(objectsDir, 0o755))

	readonly := filepath.Join(objectsDir, "pack.idx")
	require.NoError(t, os.WriteFile(readonly, []byte("data"), 0o400))

	f.Cleanup(jobID)

	_, err := os.Stat(filepath.Join(f.cloneDir, jobID))
	assert.True(t, os.IsNotExist(err))
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		reference string
		want      string
	}{
		{"https://github.com/user/my-repo", "my-repo"},
		{"https://github.com/user/my-repo.git", "my-repo"},
		{"https://gitlab.com/group/sub/project", "project"},
	}

	for _, tt := range tests {
		got, err := repoName(tt.reference)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetector_Detect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app/main.py", "import os\n\nprint('hi')\n")
	writeFile(t, root, "app/models.py", "class A:\n    pass\n")
	writeFile(t, root, "web/index.js", "console.log('hi');\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, ".git/config", "[core]\n")

	d := NewDetector()
	result, err := d.Detect(root)
	require.NoError(t, err)

	assert.True(t, result.Has("Python"))
	assert.True(t, result.Has("JavaScript"))
	assert.Equal(t, 2, result.FileCounts["Python"])
	assert.Equal(t, 1, result.FileCounts["JavaScript"])

	// ファイル数の多い順に並ぶ
	require.NotEmpty(t, result.Languages)
	assert.Equal(t, "Python", result.Languages[0])

	// マークダウンや .git 配下はソースとして数えない
	assert.False(t, result.Has("Markdown"))
}

func TestDetector_Detect_MarkerFileOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "fastapi==0.100.0\n")

	d := NewDetector()
	result, err := d.Detect(root)
	require.NoError(t, err)

	// マーカーファイルのみの言語も候補に含まれる
	assert.True(t, result.Has("Python"))
	assert.Equal(t, 0, result.FileCounts["Python"])
}

func TestDetector_Detect_EmptyTree(t *testing.T) {
	root := t.TempDir()

	d := NewDetector()
	result, err := d.Detect(root)
	require.NoError(t, err)

	assert.Empty(t, result.Languages)
}

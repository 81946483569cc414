package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrArtifactNotFound は指定ジョブの成果物が存在しないことを示す
var ErrArtifactNotFound = errors.New("artifact not found")

const artifactFileName = "README.md"

// ArtifactStore は生成されたREADMEをジョブIDごとのディレクトリに保存する
type ArtifactStore struct {
	outputDir string
}

// NewArtifactStore は ArtifactStore を作成する
func NewArtifactStore(outputDir string) *ArtifactStore {
	return &ArtifactStore{outputDir: outputDir}
}

// Save はREADME本文を保存し、そのパスを返す
func (s *ArtifactStore) Save(jobID, content string) (string, error) {
	dir := filepath.Join(s.outputDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	path := filepath.Join(dir, artifactFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}

// Path は成果物のファイルパスを返す
func (s *ArtifactStore) Path(jobID string) (string, error) {
	path := filepath.Join(s.outputDir, jobID, artifactFileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: job %s", ErrArtifactNotFound, jobID)
	}
	return path, nil
}

// Content は成果物の内容を読み出して返す
func (s *ArtifactStore) Content(jobID string) (string, error) {
	path, err := s.Path(jobID)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}

	return string(data), nil
}

// Delete は成果物ディレクトリごと削除する。存在しない場合は何もしない。
func (s *ArtifactStore) Delete(jobID string) error {
	return os.RemoveAll(filepath.Join(s.outputDir, jobID))
}

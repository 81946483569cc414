// Package gitrepo はリモートリポジトリの取得（マテリアライズ）と破棄を提供する。
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	giturls "github.com/whilp/git-urls"
)

var (
	// ErrInvalidReference はリポジトリ参照が構文的に不正な場合のエラー
	ErrInvalidReference = errors.New("invalid repository reference")

	// ErrTransportFailure はクローンが完了できなかった場合のエラー
	ErrTransportFailure = errors.New("repository fetch failed")

	// ErrSizeExceeded は取得したツリーがサイズ上限を超えた場合のエラー
	ErrSizeExceeded = errors.New("repository size exceeds limit")
)

// knownHosts は既知のGitホスティングサービス。
// 許可リストは助言的なもので、一致しなくても取得は試みる。
var knownHosts = []string{"github.com", "gitlab.com", "bitbucket.org"}

// Snapshot はジョブ用にマテリアライズされたリポジトリのハンドル
type Snapshot struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Path          string `json:"path"`
	SizeBytes     int64  `json:"sizeBytes"`
	Branch        string `json:"branch"`
	CommitHash    string `json:"commitHash"`
	CommitMessage string `json:"commitMessage"`
	Author        string `json:"author"`
}

// Fetcher は Git リポジトリのシャロークローンとクリーンアップを提供する
type Fetcher struct {
	cloneDir     string
	maxSizeBytes int64
	timeout      time.Duration
	logger       *slog.Logger
}

// NewFetcher は新しい Fetcher を作成する
func NewFetcher(cloneDir string, maxSizeBytes int64, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		cloneDir:     cloneDir,
		maxSizeBytes: maxSizeBytes,
		timeout:      timeout,
		logger:       logger,
	}
}

// ValidateReference はリポジトリ参照の構文チェックを行う。
// スキームとホストを持つURLであれば有効とし、既知のホスティングサービス以外は
// 警告ログのみで拒否はしない。
func (f *Fetcher) ValidateReference(reference string) bool {
	u, err := giturls.Parse(reference)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return false
	}

	host := u.Hostname()
	known := false
	for _, h := range knownHosts {
		if strings.HasSuffix(host, h) {
			known = true
			break
		}
	}
	if !known {
		f.logger.Warn("repository is not hosted on a recognized platform", "url", reference)
	}

	return true
}

// Fetch はリポジトリをジョブ専用ディレクトリにシャロークローンする。
// クローン後にツリーの総サイズを計測し、上限を超えた場合はツリーを削除して
// ErrSizeExceeded を返す。
func (f *Fetcher) Fetch(ctx context.Context, reference, jobID string) (*Snapshot, error) {
	if !f.ValidateReference(reference) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReference, reference)
	}

	name, err := repoName(reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReference, reference)
	}

	dest := filepath.Join(f.cloneDir, jobID, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.logger.Info("cloning repository", "url", reference, "dest", dest)

	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:          reference,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		f.Cleanup(jobID)
		return nil, fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}

	size, err := f.enforceSizeLimit(dest, jobID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Name:      name,
		URL:       reference,
		Path:      dest,
		SizeBytes: size,
	}

	head, err := repo.Head()
	if err == nil {
		snapshot.Branch = head.Name().Short()
		snapshot.CommitHash = head.Hash().String()[:8]

		if commit, cerr := repo.CommitObject(head.Hash()); cerr == nil {
			snapshot.CommitMessage = strings.TrimSpace(commit.Message)
			snapshot.Author = commit.Author.Name
		}
	}

	f.logger.Info("repository cloned",
		"name", snapshot.Name, "sizeBytes", snapshot.SizeBytes, "commit", snapshot.CommitHash)

	return snapshot, nil
}

// enforceSizeLimit はマテリアライズ済みツリーの総サイズを計測し、
// 上限を超えている場合はツリーを削除して ErrSizeExceeded を返す
func (f *Fetcher) enforceSizeLimit(dest, jobID string) (int64, error) {
	size, err := directorySize(dest)
	if err != nil {
		f.Cleanup(jobID)
		return 0, fmt.Errorf("failed to measure repository size: %w", err)
	}
	if size > f.maxSizeBytes {
		f.Cleanup(jobID)
		return 0, fmt.Errorf("%w: %.2fMB > %.2fMB",
			ErrSizeExceeded, float64(size)/1024/1024, float64(f.maxSizeBytes)/1024/1024)
	}
	return size, nil
}

// RepoPath はジョブ用ディレクトリ配下のリポジトリパスを返す
func (f *Fetcher) RepoPath(jobID string) (string, bool) {
	jobDir := filepath.Join(f.cloneDir, jobID)
	entries, err := os.ReadDir(jobDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return filepath.Join(jobDir, entry.Name()), true
		}
	}
	return "", false
}

// Cleanup はジョブ用ディレクトリを再帰的に削除する。
// 冪等であり、存在しないジョブIDに対しては何もしない。
// .git 配下の読み取り専用ファイルは書き込み権限を付与してから削除する。
// 削除エラーはログに記録し、呼び出し元へは伝播しない。
func (f *Fetcher) Cleanup(jobID string) {
	jobDir := filepath.Join(f.cloneDir, jobID)
	if _, err := os.Stat(jobDir); os.IsNotExist(err) {
		return
	}

	if err := os.RemoveAll(jobDir); err == nil {
		f.logger.Info("cleaned up repository", "jobID", jobID)
		return
	}

	// 読み取り専用ファイルが削除を阻んでいる場合に備えて権限を付与する
	_ = filepath.WalkDir(jobDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			_ = os.Chmod(path, 0o755)
		} else {
			_ = os.Chmod(path, 0o644)
		}
		return nil
	})

	if err := os.RemoveAll(jobDir); err != nil {
		f.logger.Error("failed to clean up repository", "jobID", jobID, "error", err)
		return
	}

	f.logger.Info("cleaned up repository", "jobID", jobID)
}

// repoName はURLからリポジトリ名を導出する
func repoName(reference string) (string, error) {
	u, err := giturls.Parse(reference)
	if err != nil {
		return "", fmt.Errorf("failed to parse git URL: %w", err)
	}

	path := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if path == "" {
		return "", fmt.Errorf("repository path is empty")
	}

	parts := strings.Split(path, "/")
	return parts[len(parts)-1], nil
}

// directorySize はディレクトリ配下の総バイト数を計測する
func directorySize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/repodoc/internal/analyzer"
	"github.com/jinford/repodoc/internal/generator"
	"github.com/jinford/repodoc/internal/gitrepo"
)

// RepoFetcher はリポジトリの取得と後始末を行うコラボレータ
type RepoFetcher interface {
	Fetch(ctx context.Context, reference, jobID string) (*gitrepo.Snapshot, error)
	RepoPath(jobID string) (string, bool)
	Cleanup(jobID string)
}

// RepoAnalyzer はスナップショットを解析するコラボレータ
type RepoAnalyzer interface {
	Analyze(ctx context.Context, snapshot *gitrepo.Snapshot) (*analyzer.Analysis, error)
}

// ReadmeGenerator は解析レコードからREADMEを生成するコラボレータ
type ReadmeGenerator interface {
	Generate(ctx context.Context, analysis *analyzer.Analysis, opts *generator.Options) (*generator.Result, error)
}

// Orchestrator はREADME生成ワークフロー全体を調整する
type Orchestrator struct {
	registry  *Registry
	artifacts *ArtifactStore
	fetcher   RepoFetcher
	analyzer  RepoAnalyzer
	generator ReadmeGenerator
	logger    *slog.Logger
}

// NewOrchestrator は Orchestrator を作成する
func NewOrchestrator(registry *Registry, artifacts *ArtifactStore, fetcher RepoFetcher, repoAnalyzer RepoAnalyzer, readmeGenerator ReadmeGenerator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry:  registry,
		artifacts: artifacts,
		fetcher:   fetcher,
		analyzer:  repoAnalyzer,
		generator: readmeGenerator,
		logger:    logger,
	}
}

// CreateJob は新しいジョブを登録してIDを返す
func (o *Orchestrator) CreateJob(request Request) string {
	id := o.registry.Create(request)
	o.logger.Info("created job", "jobID", id, "repoURL", request.RepoURL)
	return id
}

// Execute はジョブを最後まで実行する。
// 処理中の致命的なエラーはジョブを Failed に遷移させたうえで返す。
// 終端状態の書き込み後にクローンの後始末を試み、その失敗はログに留める。
func (o *Orchestrator) Execute(ctx context.Context, id string) (*Result, error) {
	current, err := o.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if current.Stage.Terminal() {
		return nil, fmt.Errorf("job %s already finished with status %s", id, current.Stage)
	}

	result, err := o.run(ctx, id, current.Request)
	if err != nil {
		o.logger.Error("job execution failed", "jobID", id, "error", err)
		o.registry.Fail(id, err)
		o.fetcher.Cleanup(id)
		return nil, err
	}

	o.registry.Complete(id, result)
	o.fetcher.Cleanup(id)

	o.logger.Info("job completed", "jobID", id, "readmePath", result.ReadmePath)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, request Request) (*Result, error) {
	o.registry.Advance(id, StageCloning, 10, "Cloning repository...")

	snapshot, err := o.fetcher.Fetch(ctx, request.RepoURL, id)
	if err != nil {
		return nil, err
	}

	// 解析はジョブ名前空間に実体化されたパスに対して行う
	path, ok := o.fetcher.RepoPath(id)
	if !ok {
		return nil, fmt.Errorf("repository for job %s is not materialized", id)
	}
	snapshot.Path = path

	o.registry.Advance(id, StageAnalyzing, 30, "Analyzing repository structure...")

	analysis, err := o.analyzer.Analyze(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	// 構造抽出は解析の一部として完了しているため、ここでは進捗のみ更新する
	o.registry.Advance(id, StageParsing, 50, "Extracting API endpoints and code structure...")

	o.registry.Advance(id, StageGenerating, 70, "Generating README with AI...")

	opts := request.Options
	generated, err := o.generator.Generate(ctx, analysis, &opts)
	if err != nil {
		return nil, err
	}

	o.registry.Advance(id, StageGenerating, 90, "Saving README file...")

	path, err = o.artifacts.Save(id, generated.Content)
	if err != nil {
		return nil, err
	}

	return &Result{
		ReadmePath:    path,
		ReadmeContent: generated.Content,
		Diagrams:      generated.Diagrams,
		Statistics:    generated.Statistics,
		RepositoryInfo: RepositoryInfo{
			Name:           analysis.Repository.Name,
			URL:            request.RepoURL,
			Languages:      analysis.Languages,
			Frameworks:     analysis.Frameworks,
			TotalFiles:     analysis.TotalFiles,
			TotalLines:     analysis.TotalLines,
			EndpointsFound: len(analysis.Code.Endpoints),
		},
	}, nil
}

// GetStatus はジョブ状態のスナップショットを返す
func (o *Orchestrator) GetStatus(id string) (*Job, error) {
	return o.registry.Get(id)
}

// GetResult は完了したジョブの成果物を返す
func (o *Orchestrator) GetResult(id string) (*Result, error) {
	job, err := o.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Stage != StageCompleted || job.Result == nil {
		return nil, fmt.Errorf("job %s has no result (status: %s)", id, job.Stage)
	}
	return job.Result, nil
}

// GetReadmeContent は保存されたREADMEの内容を返す。
// 成果物はファイルシステムに永続化されているため、登録簿にジョブが
// 残っていなくても取得できる。
func (o *Orchestrator) GetReadmeContent(id string) (string, error) {
	return o.artifacts.Content(id)
}

// GetReadmePath は保存されたREADMEのパスを返す
func (o *Orchestrator) GetReadmePath(id string) (string, error) {
	return o.artifacts.Path(id)
}

// DeleteJob はジョブの登録と成果物をまとめて削除する。
// 登録簿と成果物のどちらにも痕跡がない場合のみ ErrJobNotFound を返す。
func (o *Orchestrator) DeleteJob(id string) error {
	registryErr := o.registry.Delete(id)

	_, artifactErr := o.artifacts.Path(id)
	if artifactErr == nil {
		if err := o.artifacts.Delete(id); err != nil {
			o.logger.Warn("failed to delete artifact", "jobID", id, "error", err)
		}
		return nil
	}

	return registryErr
}

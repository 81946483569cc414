// Package job はREADME生成ジョブのライフサイクル管理を提供する。
// ジョブは Pending から Completed まで段階を前進し、非終端の任意の段階から
// Failed に遷移できる。終端に達したジョブの状態は以後変化しない。
package job

import (
	"time"

	"github.com/jinford/repodoc/internal/generator"
)

// Stage はジョブの処理段階を表す
type Stage string

const (
	StagePending    Stage = "pending"
	StageCloning    Stage = "cloning"
	StageAnalyzing  Stage = "analyzing"
	StageParsing    Stage = "parsing"
	StageGenerating Stage = "generating"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// Terminal は段階が終端（Completed または Failed）かどうかを返す
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// Request はREADME生成の依頼内容を表す
type Request struct {
	RepoURL string            `json:"repoURL"`
	Options generator.Options `json:"options"`
}

// RepositoryInfo は生成結果に添付するリポジトリの概要
type RepositoryInfo struct {
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	Languages      []string `json:"languages"`
	Frameworks     []string `json:"frameworks"`
	TotalFiles     int      `json:"totalFiles"`
	TotalLines     int      `json:"totalLines"`
	EndpointsFound int      `json:"endpointsFound"`
}

// Result は完了したジョブの成果物を表す
type Result struct {
	ReadmePath     string               `json:"readmePath"`
	ReadmeContent  string               `json:"readmeContent"`
	Diagrams       []generator.Diagram  `json:"diagrams"`
	Statistics     generator.Statistics `json:"statistics"`
	RepositoryInfo RepositoryInfo       `json:"repositoryInfo"`
}

// Job はジョブの状況を表す
type Job struct {
	ID        string    `json:"jobID"`
	Stage     Stage     `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Request   Request   `json:"request"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}

package job

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound は指定IDのジョブが存在しないことを示す
var ErrJobNotFound = errors.New("job not found")

// Registry はジョブ状態のインメモリ登録簿。
// すべての操作は排他制御され、並行アクセスに対して安全である。
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewRegistry は空の Registry を作成する
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*Job),
	}
}

// Create は新しいジョブを Pending 状態で登録し、そのIDを返す
func (r *Registry) Create(request Request) string {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Stage:     StagePending,
		Progress:  0,
		Message:   "Job created",
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job

	return job.ID
}

// Get はジョブ状態のスナップショットコピーを返す
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// Advance はジョブを指定の段階へ前進させる。
// 未知のIDや終端済みのジョブに対しては何もしない。
func (r *Registry) Advance(id string, stage Stage, progress int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Stage.Terminal() {
		return
	}

	job.Stage = stage
	job.Progress = progress
	job.Message = message
	job.UpdatedAt = time.Now().UTC()
}

// Complete はジョブを成果物付きで Completed に遷移させる
func (r *Registry) Complete(id string, result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Stage.Terminal() {
		return
	}

	job.Stage = StageCompleted
	job.Progress = 100
	job.Message = "README generated successfully!"
	job.Result = result
	job.UpdatedAt = time.Now().UTC()
}

// Fail はジョブを Failed に遷移させる。進捗は0に戻る。
func (r *Registry) Fail(id string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Stage.Terminal() {
		return
	}

	job.Stage = StageFailed
	job.Progress = 0
	job.Message = "Job failed: " + cause.Error()
	job.Error = cause.Error()
	job.UpdatedAt = time.Now().UTC()
}

// Delete はジョブを登録簿から取り除く
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return ErrJobNotFound
	}

	delete(r.jobs, id)
	return nil
}

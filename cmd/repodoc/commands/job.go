package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/repodoc/internal/job"
)

// JobStatusAction はジョブの状態を表示するコマンドのアクション
func JobStatusAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("env"), "")
	if err != nil {
		return err
	}

	fmt.Print(renderJobStatus(appCtx, cmd.String("id")))
	return nil
}

// renderJobStatus はジョブ状態の表示文字列を組み立てる。
// 未知のIDはエラーではなく「見つからない」旨の案内として表示する。
func renderJobStatus(appCtx *AppContext, id string) string {
	status, err := appCtx.Orchestrator.GetStatus(id)
	if errors.Is(err, job.ErrJobNotFound) {
		return fmt.Sprintf("No such job: %s\n"+
			"Job state is kept per process. If the job finished in another run,\n"+
			"its README may still be available via 'job show --id %s'.\n", id, id)
	}
	if err != nil {
		return fmt.Sprintf("Failed to look up job %s: %v\n", id, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Job ID:    %s\n", status.ID)
	fmt.Fprintf(&b, "Status:    %s\n", status.Stage)
	fmt.Fprintf(&b, "Progress:  %d%%\n", status.Progress)
	fmt.Fprintf(&b, "Message:   %s\n", status.Message)
	fmt.Fprintf(&b, "Created:   %s\n", status.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Updated:   %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
	if status.Error != "" {
		fmt.Fprintf(&b, "Error:     %s\n", status.Error)
	}
	return b.String()
}

// JobShowAction は生成されたREADMEの内容を表示するコマンドのアクション
func JobShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("env"), "")
	if err != nil {
		return err
	}

	id := cmd.String("id")
	content, err := appCtx.Orchestrator.GetReadmeContent(id)
	if errors.Is(err, job.ErrArtifactNotFound) {
		fmt.Printf("No README found for job: %s\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Print(content)
	return nil
}

// JobDeleteAction はジョブと成果物を削除するコマンドのアクション
func JobDeleteAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(cmd.String("env"), "")
	if err != nil {
		return err
	}

	id := cmd.String("id")
	if err := appCtx.Orchestrator.DeleteJob(id); err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			fmt.Printf("No such job: %s\n", id)
			return nil
		}
		return err
	}

	fmt.Printf("Job deleted: %s\n", id)
	return nil
}

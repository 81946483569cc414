package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jinford/repodoc/internal/generator"
	"github.com/jinford/repodoc/internal/job"
)

// pollInterval はジョブ進捗の表示間隔
const pollInterval = 500 * time.Millisecond

// GenerateAction はREADME生成を実行するコマンドのアクション
func GenerateAction(ctx context.Context, cmd *cli.Command) error {
	repoURL := cmd.String("repo")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(envFile, cmd.String("out"))
	if err != nil {
		return err
	}

	sections := make([]generator.Section, 0)
	for _, s := range cmd.StringSlice("sections") {
		sections = append(sections, generator.Section(s))
	}

	request := job.Request{
		RepoURL: repoURL,
		Options: generator.Options{
			Length:             generator.Length(cmd.String("length")),
			Style:              generator.Style(cmd.String("style")),
			Sections:           sections,
			IncludeExamples:    cmd.Bool("examples"),
			CustomInstructions: cmd.String("instructions"),
		},
	}

	jobID := appCtx.Orchestrator.CreateJob(request)
	fmt.Printf("Job created: %s\n", jobID)

	done := make(chan error, 1)
	go func() {
		_, execErr := appCtx.Orchestrator.Execute(ctx, jobID)
		done <- execErr
	}()

	if err := watchProgress(ctx, appCtx, jobID, done); err != nil {
		return err
	}

	result, err := appCtx.Orchestrator.GetResult(jobID)
	if err != nil {
		return err
	}

	fmt.Printf("\nREADME generated: %s\n", result.ReadmePath)
	fmt.Printf("  Repository: %s (%s)\n", result.RepositoryInfo.Name, result.RepositoryInfo.URL)
	fmt.Printf("  Lines: %d, Words: %d\n", result.Statistics.LineCount, result.Statistics.WordCount)
	fmt.Printf("  Endpoints found: %d, Diagrams: %d\n", result.RepositoryInfo.EndpointsFound, len(result.Diagrams))

	return nil
}

// watchProgress はジョブが終端に達するまで進捗を表示する
func watchProgress(ctx context.Context, appCtx *AppContext, jobID string, done <-chan error) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	lastMessage := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			if err != nil {
				return fmt.Errorf("job %s failed: %w", jobID, err)
			}
			printStatus(appCtx, jobID, &lastMessage)
			return nil
		case <-ticker.C:
			printStatus(appCtx, jobID, &lastMessage)
		}
	}
}

func printStatus(appCtx *AppContext, jobID string, lastMessage *string) {
	status, err := appCtx.Orchestrator.GetStatus(jobID)
	if err != nil {
		return
	}
	if status.Message != *lastMessage {
		fmt.Printf("[%3d%%] %s\n", status.Progress, status.Message)
		*lastMessage = status.Message
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/repodoc/cmd/repodoc/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "repodoc",
		Usage: "GitリポジトリのREADMEをAIで自動生成するツール",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "リポジトリを解析してREADMEを生成",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "repo",
						Usage:    "GitリポジトリURL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "length",
						Usage: "READMEの長さ (short/medium/detailed)",
						Value: "medium",
					},
					&cli.StringFlag{
						Name:  "style",
						Usage: "文書スタイル (technical/beginner_friendly/comprehensive)",
						Value: "technical",
					},
					&cli.StringSliceFlag{
						Name:  "sections",
						Usage: "生成するセクション (overview/installation/api_documentation/usage_examples など)",
					},
					&cli.BoolFlag{
						Name:  "examples",
						Usage: "コード例を含める",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "instructions",
						Usage: "追加の生成指示",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "出力ディレクトリ（省略時は環境変数またはデフォルトの ./outputs）",
					},
				},
				Action: commands.GenerateAction,
			},
			{
				Name:  "job",
				Usage: "ジョブ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "status",
						Usage: "ジョブの状態を表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "id",
								Usage:    "ジョブID",
								Required: true,
							},
						},
						Action: commands.JobStatusAction,
					},
					{
						Name:  "show",
						Usage: "生成されたREADMEを表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "id",
								Usage:    "ジョブID",
								Required: true,
							},
						},
						Action: commands.JobShowAction,
					},
					{
						Name:  "delete",
						Usage: "ジョブと成果物を削除",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "id",
								Usage:    "ジョブID",
								Required: true,
							},
						},
						Action: commands.JobDeleteAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

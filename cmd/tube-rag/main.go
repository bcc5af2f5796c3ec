package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/jinford/tube-rag/internal/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "tube-rag",
		Usage: "YouTube動画のトランスクリプトを取り込み、検索・質問応答を提供するRAGツール",
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "YouTube動画を取り込み、チャンク化とEmbeddingまで実行",
				ArgsUsage: "<youtube-url>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "取り込みユーザーID（省略可）",
					},
				},
				Action: appcli.IngestAction,
			},
			{
				Name:      "ask",
				Usage:     "取り込み済み動画に対して質問応答を実行",
				ArgsUsage: "<質問文>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "analysis",
						Usage:    "解析ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "show-sources",
						Usage: "参照チャンクも出力",
					},
				},
				Action: appcli.AskAction,
			},
			{
				Name:      "search",
				Usage:     "取り込み済み動画のチャンクを類似検索",
				ArgsUsage: "<検索クエリ>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "analysis",
						Usage:    "解析ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "検索結果の最大件数",
						Value: 10,
					},
				},
				Action: appcli.SearchAction,
			},
			{
				Name:  "analysis",
				Usage: "解析管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "解析一覧を表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
						},
						Action: appcli.AnalysisListAction,
					},
					{
						Name:  "show",
						Usage: "解析詳細を表示",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.StringFlag{
								Name:     "id",
								Usage:    "解析ID",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "questions",
								Usage: "質問履歴も表示",
							},
						},
						Action: appcli.AnalysisShowAction,
					},
				},
			},
			{
				Name:  "server",
				Usage: "サーバ関連コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTPサーバを起動",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.IntFlag{
								Name:  "port",
								Usage: "HTTPポート（省略時は環境変数またはデフォルトの8080）",
							},
						},
						Action: appcli.ServeAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

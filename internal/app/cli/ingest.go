package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// IngestAction は動画取り込みコマンドのアクション
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	userID := cmd.String("user")

	rawURL := cmd.Args().First()
	if rawURL == "" {
		return fmt.Errorf("YouTube URLを指定してください")
	}

	slog.Info("動画の取り込みを開始", "url", rawURL)

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.IngestService.Ingest(ctx, rawURL, userID)
	if err != nil {
		slog.Error("取り込みに失敗しました", "error", err)
		return err
	}

	fmt.Printf("取り込み完了: %s\n", result.Analysis.Title)
	fmt.Printf("  解析ID:       %s\n", result.Analysis.ID)
	fmt.Printf("  動画ID:       %s\n", result.Analysis.VideoID)
	fmt.Printf("  チャンネル:   %s\n", result.Analysis.ChannelName)
	fmt.Printf("  チャンク数:   %d\n", result.ChunkCount)
	fmt.Printf("  処理時間:     %s\n", result.Duration)

	return nil
}

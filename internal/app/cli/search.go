package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

// SearchAction はチャンク検索コマンドのアクション
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	limit := cmd.Int("limit")

	analysisID, err := uuid.Parse(cmd.String("analysis"))
	if err != nil {
		return fmt.Errorf("解析IDが不正です: %w", err)
	}

	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("検索クエリを指定してください")
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	results, err := appCtx.SearchService.SemanticSearch(ctx, analysisID, query, limit)
	if err != nil {
		slog.Error("検索に失敗しました", "error", err)
		return err
	}

	if len(results) == 0 {
		fmt.Println("検索結果はありません")
		return nil
	}

	for i, result := range results {
		fmt.Printf("[%d] チャンク#%d スコア: %.4f\n%s\n\n",
			i+1,
			result.Chunk.Index,
			result.Score,
			result.Chunk.Content,
		)
	}

	return nil
}

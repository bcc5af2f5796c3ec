package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/jinford/tube-rag/internal/core/qa"
)

// AskAction は質問応答コマンドのアクション
func AskAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	showSources := cmd.Bool("show-sources")

	analysisID, err := uuid.Parse(cmd.String("analysis"))
	if err != nil {
		return fmt.Errorf("解析IDが不正です: %w", err)
	}

	question := cmd.Args().First()
	if question == "" {
		return fmt.Errorf("質問文を指定してください")
	}

	slog.Info("質問応答を開始",
		"analysisID", analysisID,
		"question", question,
	)

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	answer, err := appCtx.QAService.Ask(ctx, qa.AskParams{
		AnalysisID: analysisID,
		Question:   question,
	})
	if err != nil {
		slog.Error("質問応答に失敗しました", "error", err)
		return err
	}

	fmt.Println(answer.Answer)

	// --show-sourcesフラグが指定されている場合、引用チャンクも出力
	if showSources && len(answer.Citations) > 0 {
		fmt.Println("\n--- 参照チャンク ---")
		for i, citation := range answer.Citations {
			fmt.Printf("[%d] チャンク#%d スコア: %.4f\n    %s\n",
				i+1,
				citation.ChunkIndex,
				citation.Score,
				citation.Excerpt,
			)
		}
	}

	slog.Info("質問応答が完了しました", "confidence", answer.Confidence)
	return nil
}

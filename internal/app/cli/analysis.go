package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

// AnalysisListAction は解析一覧コマンドのアクション
func AnalysisListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	analyses, err := appCtx.Repo.ListAnalyses(ctx)
	if err != nil {
		slog.Error("解析一覧の取得に失敗しました", "error", err)
		return err
	}

	if len(analyses) == 0 {
		fmt.Println("解析はまだありません")
		return nil
	}

	for _, analysis := range analyses {
		fmt.Printf("%s  [%s]  %s (%s)\n",
			analysis.ID,
			analysis.Status,
			analysis.Title,
			analysis.VideoID,
		)
	}

	return nil
}

// AnalysisShowAction は解析詳細コマンドのアクション
func AnalysisShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	showQuestions := cmd.Bool("questions")

	analysisID, err := uuid.Parse(cmd.String("id"))
	if err != nil {
		return fmt.Errorf("解析IDが不正です: %w", err)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	analysisOpt, err := appCtx.Repo.FindAnalysis(ctx, analysisID)
	if err != nil {
		slog.Error("解析の取得に失敗しました", "error", err)
		return err
	}
	analysis, exists := analysisOpt.Get()
	if !exists {
		return fmt.Errorf("解析が見つかりません: %s", analysisID)
	}

	fmt.Printf("解析ID:       %s\n", analysis.ID)
	fmt.Printf("動画ID:       %s\n", analysis.VideoID)
	fmt.Printf("タイトル:     %s\n", analysis.Title)
	fmt.Printf("チャンネル:   %s\n", analysis.ChannelName)
	fmt.Printf("URL:          %s\n", analysis.URL)
	fmt.Printf("ステータス:   %s\n", analysis.Status)
	fmt.Printf("作成日時:     %s\n", analysis.CreatedAt.Format("2006-01-02 15:04:05"))

	if showQuestions {
		questions, err := appCtx.Repo.ListQuestions(ctx, analysisID)
		if err != nil {
			slog.Error("質問履歴の取得に失敗しました", "error", err)
			return err
		}

		fmt.Println("\n--- 質問履歴 ---")
		if len(questions) == 0 {
			fmt.Println("質問はまだありません")
			return nil
		}
		for i, q := range questions {
			fmt.Printf("[%d] Q: %s\n    A: %s\n", i+1, q.Question, q.Answer)
		}
	}

	return nil
}

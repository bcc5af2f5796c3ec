package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jinford/tube-rag/internal/interface/httpapi"
)

// shutdownTimeout はGraceful Shutdownの猶予時間
const shutdownTimeout = 10 * time.Second

// ServeAction はHTTPサーバー起動コマンドのアクション
func ServeAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	port := cmd.Int("port")
	if port == 0 {
		port = appCtx.Config.HTTPPort
	}

	server := httpapi.NewServer(
		port,
		appCtx.IngestService,
		appCtx.QAService,
		appCtx.SearchService,
		appCtx.Repo,
		httpapi.WithServerLogger(appCtx.Logger()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// シグナル受信時は処理中のリクエストの完了を待ってから停止する
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

package youtube

import (
	"context"
	"os/exec"
)

// CommandRunner は外部コマンドの実行インターフェース
// テストでサブプロセス起動を差し替えるために使う
type CommandRunner interface {
	// Run はコマンドを実行し、標準出力と標準エラーを結合して返す
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner は os/exec による CommandRunner の実装
type ExecRunner struct{}

// Run はコマンドを実行する。ctx のキャンセル・タイムアウトでプロセスは終了する
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var _ CommandRunner = ExecRunner{}

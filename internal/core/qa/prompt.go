package qa

import (
	"strings"

	"github.com/jinford/tube-rag/internal/core/search"
)

// SystemPrompt は回答をコンテキストに限定するためのシステム指示
const SystemPrompt = `あなたは動画のトランスクリプトに基づいて質問に答えるアシスタントです。
以下のルールを厳守してください。
- 提供されたコンテキストに含まれる情報のみを使って回答する
- コンテキストに十分な情報がない場合は、推測せずにその旨を明確に述べる
- 回答は質問と同じ言語で、簡潔に書く`

// BuildContext は採用チャンクのテキストをスコア順のまま空行区切りで結合する
// encoder が指定されている場合、合計トークン数が tokenLimit を超えない範囲に切り詰める
// （最低1チャンクは必ず含める）
func BuildContext(results []*search.Result, encoder TokenEncoder, tokenLimit int) string {
	var (
		parts  []string
		tokens int
	)

	for i, result := range results {
		if encoder != nil && tokenLimit > 0 {
			count := len(encoder.Encode(result.Chunk.Content, nil, nil))
			if i > 0 && tokens+count > tokenLimit {
				break
			}
			tokens += count
		}
		parts = append(parts, result.Chunk.Content)
	}

	return strings.Join(parts, "\n\n")
}

// BuildUserPrompt はコンテキストと質問から質問応答用のプロンプトを構築する
func BuildUserPrompt(contextText, question string) string {
	var sb strings.Builder

	sb.WriteString("## コンテキスト: 動画トランスクリプトの抜粋\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\n")

	sb.WriteString("## 質問\n")
	sb.WriteString(question)
	sb.WriteString("\n\n")

	sb.WriteString("## 回答\n")

	return sb.String()
}

package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "my-chatbot",
	Short: "이용약관 안내 챗봇 서버",
	Long: `my-chatbot은 서비스 이용약관을 근거로 질문에 답하는 RAG 챗봇입니다.

약관 문서를 청크로 나누어 임베딩한 뒤, 질문과 가장 유사한 조항만을
문맥으로 제공하여 한국어 답변을 생성합니다.

인자 없이 실행하면 HTTP 서버를 시작합니다.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

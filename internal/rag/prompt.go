package rag

import (
	"fmt"
	"strings"

	"github.com/DanyoungYoo/my-chatbot/internal/knowledge"
)

// answerPrompt instructs the model to answer in the configured language using
// only the retrieved context, and to emit notFoundAnswer when the context does
// not contain the answer. Grounding is enforced by prompting only; the system
// does not verify that the answer actually came from the context.
const answerPrompt = `당신은 친절한 안내원입니다. 사용자의 질문에 대해 주어진 문맥(Context)만을 사용하여 %s로 답변해주세요. 문맥에 답변이 없는 경우, "%s"라고 답변해주세요.

Context: %s
Question: %s`

// defaultLanguage is the answer language when none is configured.
const defaultLanguage = "한국어"

// notFoundAnswer is the fixed sentence the model is told to use when the
// context lacks the answer.
const notFoundAnswer = "죄송하지만 해당 정보는 찾을 수 없습니다."

// fallbackAnswer is returned to the user when the completion service produces
// an empty response. Deliberately a normal 200 answer: a provider glitch
// should read as a polite miss, while hard failures still surface as errors.
const fallbackAnswer = "죄송합니다, 답변을 생성할 수 없습니다."

// contextSeparator joins retrieved segment texts inside the prompt.
const contextSeparator = "\n\n"

// buildContext joins the retrieved segments' texts with blank lines.
func buildContext(segments []knowledge.Segment) string {
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return strings.Join(texts, contextSeparator)
}

// formatPrompt merges the retrieved context and the user question into the
// instruction prompt sent to the model, answered in the given language.
func formatPrompt(language, context, question string) string {
	if language == "" {
		language = defaultLanguage
	}
	return fmt.Sprintf(answerPrompt, language, notFoundAnswer, context, question)
}

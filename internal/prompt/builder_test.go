package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Help(t *testing.T) {
	p := Build(Input{Tag: "help"}, nil, nil)

	assert.Equal(t, "help", p.Type)
	assert.Contains(t, p.Text, "@tagmind")
	assert.Contains(t, p.Text, "recap[n]")
	assert.Empty(t, p.Debug)
}

func TestBuild_LLM(t *testing.T) {
	p := Build(Input{Tag: "llm", Payload: "what is Go?"}, nil, nil)

	assert.Equal(t, "llm", p.Type)
	assert.Contains(t, p.Text, "what is Go?")
	assert.Equal(t, len("what is Go?"), p.Debug["payloadLen"])
}

func TestBuild_LLM_BlankPayloadAsksForInput(t *testing.T) {
	p := Build(Input{Tag: "llm", Payload: "   "}, nil, nil)

	assert.Equal(t, "llm", p.Type)
	assert.Contains(t, p.Text, "спроси вежливо")
}

func TestBuild_Recap(t *testing.T) {
	history := []HistoryEntry{
		{Direction: "IN", Text: "first"},
		{Direction: "OUT", Text: "second"},
	}
	count := 3
	p := Build(Input{Tag: "recap", Count: &count}, history, nil)

	assert.Equal(t, "recap", p.Type)
	assert.Contains(t, p.Text, "IN: first\nOUT: second")
	assert.Equal(t, 2, p.Debug["historyProvided"])
	assert.Equal(t, &count, p.Debug["requested"])
}

func TestBuild_Recap_EmptyHistoryPlaceholder(t *testing.T) {
	p := Build(Input{Tag: "recap"}, nil, nil)

	assert.Contains(t, p.Text, "не найдено сообщений")
	assert.Equal(t, 0, p.Debug["historyProvided"])
}

func TestBuild_Judge(t *testing.T) {
	history := []HistoryEntry{
		{Direction: "IN", Text: "A says yes"},
		{Direction: "OUT", Text: "B says no"},
	}
	p := Build(Input{Tag: "judge"}, history, nil)

	assert.Equal(t, "judge", p.Type)
	assert.Contains(t, p.Text, "вердикт")
	assert.Contains(t, p.Text, "IN: A says yes")
	assert.Equal(t, 2, p.Debug["historyProvided"])
}

func TestBuild_Fix(t *testing.T) {
	history := []HistoryEntry{{Direction: "IN", Text: "context line"}}
	p := Build(Input{Tag: "fix", Payload: "fix this pls"}, history, nil)

	assert.Equal(t, "fix", p.Type)
	assert.Contains(t, p.Text, "Контекст диалога:")
	assert.Contains(t, p.Text, "fix this pls")
	assert.Equal(t, len("fix this pls"), p.Debug["payloadLen"])
	assert.Equal(t, 1, p.Debug["historyProvided"])
}

func TestBuild_Fix_NoHistoryOmitsContextBlock(t *testing.T) {
	p := Build(Input{Tag: "fix", Payload: "text"}, nil, nil)

	assert.NotContains(t, p.Text, "Контекст диалога:")
	assert.Equal(t, 0, p.Debug["historyProvided"])
}

func TestBuild_Plan(t *testing.T) {
	p := Build(Input{Tag: "plan", Payload: "move to a new city"}, nil, nil)

	assert.Equal(t, "plan", p.Type)
	assert.Contains(t, p.Text, "3-5 шагов")
	assert.Contains(t, p.Text, "move to a new city")
	assert.Equal(t, len("move to a new city"), p.Debug["payloadLen"])
}

func TestBuild_Plan_BlankPayloadUsesPlaceholderSubject(t *testing.T) {
	p := Build(Input{Tag: "plan"}, nil, nil)

	assert.Contains(t, p.Text, "неопределённую задачу")
	assert.Equal(t, len("неопределённую задачу"), p.Debug["payloadLen"])
}

func TestBuild_Safe(t *testing.T) {
	p := Build(Input{Tag: "safe", Payload: "wiring a plug"}, nil, nil)

	assert.Equal(t, "safe", p.Type)
	assert.Contains(t, p.Text, "safety-оценку")
	assert.Contains(t, p.Text, "wiring a plug")
}

func TestBuild_Web(t *testing.T) {
	citations := []Citation{
		{Title: "Title One", Snippet: "snippet one", URL: "https://a.example"},
		{Title: "Title Two", Snippet: "snippet two", URL: "https://b.example"},
	}
	p := Build(Input{Tag: "web", Payload: "news"}, nil, citations)

	assert.Equal(t, "web", p.Type)
	assert.Contains(t, p.Text, "[1] Title One — snippet one (https://a.example)")
	assert.Contains(t, p.Text, "[2] Title Two — snippet two (https://b.example)")
	assert.Contains(t, p.Text, "Вопрос пользователя: news")
	assert.Equal(t, 2, p.Debug["citationsProvided"])
}

func TestBuild_Web_MissingTitleUsesPlaceholder(t *testing.T) {
	citations := []Citation{{Snippet: "s", URL: "https://a.example"}}
	p := Build(Input{Tag: "web", Payload: "q"}, nil, citations)

	assert.Contains(t, p.Text, "[1] Без названия — s (https://a.example)")
}

func TestBuild_UnknownTagFallsBackToLLM(t *testing.T) {
	p := Build(Input{Tag: "bogus", Payload: "hello"}, nil, nil)

	assert.Equal(t, "llm", p.Type)
	assert.Contains(t, p.Text, "hello")
}

func TestBuild_Deterministic(t *testing.T) {
	history := []HistoryEntry{{Direction: "IN", Text: "a"}, {Direction: "OUT", Text: "b"}}
	in := Input{Tag: "recap", Payload: "p"}

	first := Build(in, history, nil)
	second := Build(in, history, nil)

	assert.Equal(t, first.Type, second.Type)
	assert.Equal(t, first.Text, second.Text)
}

func TestPrompt_TokenEstimate(t *testing.T) {
	for _, tag := range []string{"help", "llm", "recap", "judge", "fix", "plan", "safe", "web"} {
		p := Build(Input{Tag: tag, Payload: "sample payload"}, nil, nil)
		assert.Equal(t, len(p.Text)/4+1, p.TokenEstimate(), "tag %s", tag)
	}
}

func TestFormatHistory_TrimsTrailingNewline(t *testing.T) {
	history := make([]HistoryEntry, 3)
	for i := range history {
		history[i] = HistoryEntry{Direction: "IN", Text: fmt.Sprintf("line %d", i)}
	}
	formatted := formatHistory(history)

	require.False(t, strings.HasSuffix(formatted, "\n"))
	assert.Equal(t, 3, strings.Count(formatted, "IN: "))
}

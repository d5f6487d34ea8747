// ABOUTME: Pure tag-to-prompt dispatch for the conversation orchestrator
// ABOUTME: Maps (tag, payload, count, history, citations) to a model-ready prompt plus diagnostics

package prompt

import (
	"fmt"
	"strings"
)

// HistoryEntry is one rendered line of conversation context, oldest first.
type HistoryEntry struct {
	Direction string `json:"direction"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

// Citation is a retrieval result used as grounding context for the web tag.
type Citation struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
}

// Prompt is the assembled model input with its type tag and diagnostic fields.
type Prompt struct {
	Type  string
	Text  string
	Debug map[string]any
}

// TokenEstimate approximates the prompt's token count. Diagnostics only,
// never used for truncation.
func (p Prompt) TokenEstimate() int {
	return len(p.Text)/4 + 1
}

// Input carries the request fields the builder dispatches on.
type Input struct {
	Tag     string
	Payload string
	Count   *int
}

// builderFunc assembles one tag's prompt variant.
type builderFunc func(in Input, history []HistoryEntry, citations []Citation) Prompt

// builders is the closed dispatch table keyed by tag name. Unknown tags fall
// back to the free-form llm variant; the boundary layer rejects unsupported
// tags before they reach here, so the fallback is unreachable in practice.
var builders = map[string]builderFunc{
	"help":  buildHelp,
	"llm":   buildLLM,
	"recap": buildRecap,
	"judge": buildJudge,
	"fix":   buildFix,
	"plan":  buildPlan,
	"safe":  buildSafe,
	"web":   buildWeb,
}

// Build assembles the prompt for a tag request. It is pure and deterministic:
// the same input always yields the same prompt text and type.
func Build(in Input, history []HistoryEntry, citations []Citation) Prompt {
	build, ok := builders[in.Tag]
	if !ok {
		build = buildLLM
	}
	return build(in, history, citations)
}

const helpText = `You are TagMind assistant. Explain available @tagmind commands with short guidance:
- help: list tags
- llm: answer free-form questions
- web: perform web search with citations
- recap[n]: summarize last N chat messages (default 10)
- judge[n]: compare viewpoints from last N messages (default 8)
- fix[n]: improve last N messages + payload (default 5)
- plan: build plan of actions
- safe: assess risks and safety considerations
Keep it concise in Russian.`

func buildHelp(Input, []HistoryEntry, []Citation) Prompt {
	return Prompt{Type: "help", Text: helpText, Debug: map[string]any{}}
}

func buildLLM(in Input, _ []HistoryEntry, _ []Citation) Prompt {
	content := strings.TrimSpace(in.Payload)
	if content == "" {
		content = "Пользователь ничего не написал, спроси вежливо, что ему нужно."
	}
	text := fmt.Sprintf("Пользователь обратился к тебе напрямую. Ответь развёрнуто и по существу.\nВопрос: %s", content)
	return Prompt{
		Type:  "llm",
		Text:  text,
		Debug: map[string]any{"payloadLen": len(content)},
	}
}

func buildRecap(in Input, history []HistoryEntry, _ []Citation) Prompt {
	text := fmt.Sprintf("Даны последние сообщения чата (от старых к новым). Одним абзацем дай сжатое резюме ключевых пунктов без лишних деталей.\nИстория:\n%s", formatHistory(history))
	return Prompt{
		Type: "recap",
		Text: text,
		Debug: map[string]any{
			"historyProvided": len(history),
			"requested":       in.Count,
		},
	}
}

func buildJudge(_ Input, history []HistoryEntry, _ []Citation) Prompt {
	text := fmt.Sprintf(`Ты — беспристрастный судья. Проанализируй дискуссию (сообщения перечислены от старых к новым) и дай вывод:
1) Кратко изложи позицию стороны A (пользователь) и стороны B (бот/собеседник).
2) Укажи сильные и слабые аргументы.
3) Вынеси вердикт: кто прав/не прав/нужны данные.
История:
%s`, formatHistory(history))
	return Prompt{
		Type:  "judge",
		Text:  text,
		Debug: map[string]any{"historyProvided": len(history)},
	}
}

func buildFix(in Input, history []HistoryEntry, _ []Citation) Prompt {
	var lines []string
	if len(history) > 0 {
		lines = append(lines, "Контекст диалога:", formatHistory(history))
	}
	request := strings.TrimSpace(in.Payload)
	if request == "" {
		request = "Нет дополнительного текста."
	}
	lines = append(lines,
		"Нужно улучшить формулировку следующего текста, сохранив смысл и стиль:",
		request,
		"Выдай улучшенную версию по-русски.",
	)
	return Prompt{
		Type: "fix",
		Text: strings.Join(lines, "\n"),
		Debug: map[string]any{
			"payloadLen":      len(request),
			"historyProvided": len(history),
		},
	}
}

func buildPlan(in Input, _ []HistoryEntry, _ []Citation) Prompt {
	subject := strings.TrimSpace(in.Payload)
	if subject == "" {
		subject = "неопределённую задачу"
	}
	text := fmt.Sprintf("Построй план действий из 3-5 шагов для: %s.\nДля каждого шага добавь краткое объяснение и ожидаемый результат.", subject)
	return Prompt{
		Type:  "plan",
		Text:  text,
		Debug: map[string]any{"payloadLen": len(subject)},
	}
}

func buildSafe(in Input, _ []HistoryEntry, _ []Citation) Prompt {
	topic := strings.TrimSpace(in.Payload)
	if topic == "" {
		topic = "неизвестную ситуацию"
	}
	text := fmt.Sprintf(`Выполни safety-оценку для следующей ситуации: %s
1) Опиши потенциальные риски.
2) Дай рекомендации как безопасно продолжить.
3) Если нужны ограничения, перечисли их.
Ответ должен быть по-русски и лаконичным.`, topic)
	return Prompt{
		Type:  "safe",
		Text:  text,
		Debug: map[string]any{"payloadLen": len(topic)},
	}
}

func buildWeb(in Input, _ []HistoryEntry, citations []Citation) Prompt {
	query := strings.TrimSpace(in.Payload)
	if query == "" {
		query = "неизвестный запрос"
	}

	var sb strings.Builder
	sb.WriteString("Ниже приведены результаты веб-поиска. Используй только их для ответа и добавь цитаты вида [1], [2].\n")
	for i, c := range citations {
		title := c.Title
		if title == "" {
			title = "Без названия"
		}
		fmt.Fprintf(&sb, "[%d] %s — %s (%s)\n", i+1, title, c.Snippet, c.URL)
	}
	sb.WriteString("Вопрос пользователя: ")
	sb.WriteString(query)

	return Prompt{
		Type: "web",
		Text: sb.String(),
		Debug: map[string]any{
			"payloadLen":        len(query),
			"citationsProvided": len(citations),
		},
	}
}

// formatHistory renders history as newline-joined "direction: text" lines,
// oldest first. Empty history renders as a fixed placeholder.
func formatHistory(history []HistoryEntry) string {
	if len(history) == 0 {
		return "не найдено сообщений"
	}
	var sb strings.Builder
	for _, entry := range history {
		sb.WriteString(entry.Direction)
		sb.WriteString(": ")
		sb.WriteString(entry.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

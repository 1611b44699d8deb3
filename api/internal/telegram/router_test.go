package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/grader"
	"essay-grader/api/internal/logger"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeGrader struct {
	got grader.Request
	res *essay.GradingResult
	err error
}

func (f *fakeGrader) Grade(_ context.Context, req grader.Request) (*essay.GradingResult, error) {
	f.got = req
	return f.res, f.err
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func textMsg(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
}

const essayText = "i went to school on friday and made homework"

func sampleResult() *essay.GradingResult {
	return &essay.GradingResult{
		Scores: essay.Scores{
			{Category: "grammar", Score: essay.Score{Points: 13, OutOf: 20}},
			{Category: "vocabulary", Score: essay.Score{Points: 15, OutOf: 20}},
		},
		Total: essay.Total{Points: 28, OutOf: 40},
		InlineIssues: []essay.Issue{
			{Type: essay.CategoryCapitalization, Message: "i → I", Text: "i", Offsets: essay.Offsets{Start: 0, End: 1}},
			{Type: essay.CategoryVocabulary, Message: "use \"did\" with homework", Offsets: essay.Offsets{Start: 31, End: 35}},
			{Type: essay.CategoryCoaching, Message: "Add a closing sentence.", CoachingOnly: true, Offsets: essay.Offsets{Start: 0, End: 0}},
		},
		EncouragementNextSteps: essay.Notes{"Check capital letters."},
	}
}

func newRouter(g GradeService) (*Router, *fakeBot) {
	bot := &fakeBot{}
	return &Router{Bot: bot, Grader: g, Log: logger.Nop(), Engines: []string{"gpt", "gemini"}}, bot
}

func TestClassAndEngineCommands(t *testing.T) {
	g := &fakeGrader{res: sampleResult()}
	r, bot := newRouter(g)
	ctx := context.Background()

	r.HandleUpdate(ctx, textMsg(1, essayText))
	assert.Contains(t, bot.last().Text, "/class")

	r.HandleUpdate(ctx, command(1, "/class 7b"))
	assert.Equal(t, "✅ Class: 7b", bot.last().Text)

	r.HandleUpdate(ctx, command(1, "/engine claude"))
	assert.Contains(t, bot.last().Text, "Unknown engine")

	r.HandleUpdate(ctx, command(1, "/engine OpenAI"))
	assert.Equal(t, "✅ Engine: gpt", bot.last().Text)

	r.HandleUpdate(ctx, textMsg(1, essayText))
	assert.Equal(t, grader.Request{LLMName: "gpt", ClassID: "7b", Essay: essayText}, g.got)
	assert.Contains(t, bot.last().Text, "Score: 28/40")

	// состояние отдельно для каждого чата
	r.HandleUpdate(ctx, textMsg(2, essayText))
	assert.Contains(t, bot.last().Text, "/class")
}

func TestDefaultClass(t *testing.T) {
	g := &fakeGrader{res: sampleResult()}
	r, _ := newRouter(g)
	r.DefaultClassID = "base"

	r.HandleUpdate(context.Background(), textMsg(5, essayText))
	assert.Equal(t, "base", g.got.ClassID)
	assert.Equal(t, "", g.got.LLMName)
}

func TestShortTextRejected(t *testing.T) {
	g := &fakeGrader{res: sampleResult()}
	r, bot := newRouter(g)
	r.DefaultClassID = "base"

	r.HandleUpdate(context.Background(), textMsg(5, "hi there"))
	assert.Contains(t, bot.last().Text, "too short")
	assert.Empty(t, g.got.Essay)
}

func TestGradeErrorMessages(t *testing.T) {
	g := &fakeGrader{err: fmt.Errorf("%w: %q", grader.ErrProfileNotFound, "x")}
	r, bot := newRouter(g)
	r.DefaultClassID = "x"

	r.HandleUpdate(context.Background(), textMsg(5, essayText))
	assert.Contains(t, bot.last().Text, "I don't know this class")

	g.err = errors.New("boom")
	r.HandleUpdate(context.Background(), textMsg(5, essayText))
	assert.Contains(t, bot.last().Text, "boom")
}

func TestAllIssuesCallback(t *testing.T) {
	g := &fakeGrader{res: sampleResult()}
	r, bot := newRouter(g)
	r.DefaultClassID = "7b"
	ctx := context.Background()

	cb := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb1", Data: cbAllIssues, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}},
	}}
	r.HandleUpdate(ctx, cb)
	assert.Equal(t, "Send an essay first.", bot.last().Text)

	r.HandleUpdate(ctx, textMsg(9, essayText))
	summary := bot.last()
	assert.NotNil(t, summary.ReplyMarkup, "coaching issues add the button")

	r.HandleUpdate(ctx, cb)
	out := bot.last().Text
	assert.Contains(t, out, "1. [Capitalization] i → I")
	assert.Contains(t, out, "3. [Coaching] Add a closing sentence.")
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(essayText, sampleResult())
	assert.Contains(t, out, "Score: 28/40")
	assert.Contains(t, out, "  grammar: 13/20")
	assert.Contains(t, out, "Top issues (2 total):")
	assert.Contains(t, out, "• i → I")
	assert.Contains(t, out, `• "made": use "did" with homework`)
	assert.NotContains(t, out, "closing sentence")
	assert.Contains(t, out, "Next steps:\n• Check capital letters.")
}

func TestFormatSummaryNoIssues(t *testing.T) {
	out := FormatSummary("Fine text.", &essay.GradingResult{Total: essay.Total{Points: 100, OutOf: 100}})
	assert.Contains(t, out, "No errors found")
}

func TestFormatIssuesBadOffsets(t *testing.T) {
	out := FormatIssues("short", []essay.Issue{{Type: "grammar", Message: "odd", Offsets: essay.Offsets{Start: 3, End: 99}}})
	assert.Equal(t, "1. [Grammar] odd", out)
}

type fakeUpdater struct {
	calls  int
	cfgs   []tgbotapi.UpdateConfig
	cancel context.CancelFunc
}

func (f *fakeUpdater) GetUpdates(c tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.calls++
	f.cfgs = append(f.cfgs, c)
	switch f.calls {
	case 1:
		return []tgbotapi.Update{{UpdateID: 10}, {UpdateID: 11}}, nil
	default:
		f.cancel()
		return nil, nil
	}
}

func TestPollAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	up := &fakeUpdater{cancel: cancel}

	var seen []int
	Poll(ctx, up, logger.Nop(), func(u tgbotapi.Update) { seen = append(seen, u.UpdateID) })

	assert.Equal(t, []int{10, 11}, seen)
	require.Len(t, up.cfgs, 2)
	assert.Equal(t, 0, up.cfgs[0].Offset)
	assert.Equal(t, 12, up.cfgs[1].Offset)
}

func TestPollRetryDelay(t *testing.T) {
	assert.Equal(t, time.Duration(0), pollRetryDelay(nil))
	assert.Equal(t, 7*time.Second, pollRetryDelay(errors.New("Too Many Requests: retry after 7")))
	assert.Equal(t, 3*time.Second, pollRetryDelay(errors.New("too many requests")))
	assert.Equal(t, time.Second, pollRetryDelay(errors.New("bad gateway")))

	apiErr := &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 9}}
	assert.Equal(t, 9*time.Second, pollRetryDelay(fmt.Errorf("getUpdates: %w", apiErr)))
	assert.Equal(t, 3*time.Second, pollRetryDelay(&tgbotapi.Error{Code: 429}))

	// верхняя граница
	assert.Equal(t, 15*time.Second, pollRetryDelay(errors.New("too many requests: retry after 120")))
}

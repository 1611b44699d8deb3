package telegram

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/grader"
	"essay-grader/api/internal/logger"
)

// Sender: часть *tgbotapi.BotAPI, которой пользуется роутер.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type GradeService interface {
	Grade(ctx context.Context, req grader.Request) (*essay.GradingResult, error)
}

type Router struct {
	Bot    Sender
	Grader GradeService
	Log    *logger.Logger

	// Engines: имена настроенных движков ("gpt", "gemini").
	Engines        []string
	DefaultClassID string
	Timeout        time.Duration

	state sessions
}

const minEssayWords = 3

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd.Message)
		return
	}
	if strings.TrimSpace(upd.Message.Text) != "" {
		r.gradeText(ctx, upd.Message.Chat.ID, upd.Message.Text)
	}
}

func (r *Router) HandleCommand(m *tgbotapi.Message) {
	cid := m.Chat.ID
	args := strings.Fields(m.CommandArguments())
	s := r.state.get(cid)

	switch m.Command() {
	case "start", "help":
		r.send(cid, "Send me your essay as a text message and I will grade it.\n"+
			"Commands:\n/class <id> — choose your class\n/engine "+strings.Join(r.Engines, "|")+" — choose the model")
	case "class":
		if len(args) == 0 {
			cur, _ := s.snapshot()
			if cur == "" {
				cur = r.DefaultClassID
			}
			if cur == "" {
				cur = "not set"
			}
			r.send(cid, "Current class: "+cur+"\nUsage: /class <id>")
			return
		}
		s.setClass(args[0])
		r.send(cid, "✅ Class: "+args[0])
	case "engine":
		if len(args) == 0 {
			_, cur := s.snapshot()
			if cur == "" {
				cur = "default"
			}
			r.send(cid, "Current engine: "+cur+"\nUsage: /engine "+strings.Join(r.Engines, "|"))
			return
		}
		name := strings.ToLower(args[0])
		if name == "openai" {
			name = "gpt"
		}
		if !slices.Contains(r.Engines, name) {
			r.send(cid, "Unknown engine. Available: "+strings.Join(r.Engines, " | "))
			return
		}
		s.setEngine(name)
		r.send(cid, "✅ Engine: "+name)
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) gradeText(ctx context.Context, cid int64, text string) {
	s := r.state.get(cid)
	classID, engine := s.snapshot()
	if classID == "" {
		classID = r.DefaultClassID
	}
	if classID == "" {
		r.send(cid, "Choose your class first: /class <id>")
		return
	}
	if len(strings.Fields(text)) < minEssayWords {
		r.send(cid, "That is too short for an essay. Send the whole text.")
		return
	}

	_, _ = r.Bot.Request(tgbotapi.NewChatAction(cid, tgbotapi.ChatTyping))

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := r.Grader.Grade(ctx, grader.Request{LLMName: engine, ClassID: classID, Essay: text})
	if err != nil {
		r.log().Warn("telegram grade failed", "chat_id", cid, "class_id", classID, "err", err)
		r.send(cid, userError(err))
		return
	}
	s.remember(text, res)

	msg := tgbotapi.NewMessage(cid, FormatSummary(text, res))
	if len(res.InlineIssues) > topIssues || hasCoaching(res.InlineIssues) {
		msg.ReplyMarkup = makeIssuesKeyboard()
	}
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Error("telegram send failed", "chat_id", cid, "err", err)
	}
}

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	switch cb.Data {
	case cbAllIssues:
		text, res := r.state.get(cid).last()
		if res == nil {
			r.send(cid, "Send an essay first.")
			return
		}
		r.send(cid, FormatIssues(text, res.InlineIssues))
	}
}

func userError(err error) string {
	switch {
	case errors.Is(err, grader.ErrProfileNotFound):
		return "I don't know this class. Check the id and send /class <id> again."
	case errors.Is(err, context.DeadlineExceeded):
		return "Grading took too long. Please try again."
	default:
		return fmt.Sprintf("Could not grade the essay: %v", err)
	}
}

func hasCoaching(issues []essay.Issue) bool {
	for _, is := range issues {
		if is.CoachingOnly {
			return true
		}
	}
	return false
}

func (r *Router) send(chatID int64, text string) {
	_, _ = r.Bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) log() *logger.Logger {
	if r.Log == nil {
		return logger.Nop()
	}
	return r.Log
}

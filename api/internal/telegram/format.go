package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/util"
)

const (
	maxMessage   = 3900
	topIssues    = 5
	cbAllIssues  = "issues_all"
	issueContext = 40
)

// FormatSummary: короткий ответ ученику: баллы, главные ошибки, следующий шаг.
func FormatSummary(text string, res *essay.GradingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score: %s/%s\n", num(res.Total.Points), num(res.Total.OutOf))
	for _, s := range res.Scores {
		fmt.Fprintf(&b, "  %s: %s/%s\n", s.Category, num(s.Points), num(s.OutOf))
	}

	errs := errorIssues(res.InlineIssues)
	if len(errs) > 0 {
		fmt.Fprintf(&b, "\nTop issues (%d total):\n", len(errs))
		idx := util.NewUTF16Index(text)
		for i, is := range errs {
			if i == topIssues {
				break
			}
			b.WriteString("• " + issueLine(text, idx, is) + "\n")
		}
	} else {
		b.WriteString("\nNo errors found. Great job!\n")
	}

	if len(res.EncouragementNextSteps) > 0 {
		b.WriteString("\nNext steps:\n")
		for _, s := range res.EncouragementNextSteps {
			b.WriteString("• " + strings.TrimSpace(s) + "\n")
		}
	}
	return util.Truncate(strings.TrimRight(b.String(), "\n"), maxMessage)
}

// FormatIssues: полный список замечаний, включая coaching.
func FormatIssues(text string, issues []essay.Issue) string {
	if len(issues) == 0 {
		return "No issues."
	}
	idx := util.NewUTF16Index(text)
	var b strings.Builder
	for i, is := range issues {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, is.Type.Meta().Label, issueLine(text, idx, is))
	}
	return util.Truncate(strings.TrimRight(b.String(), "\n"), maxMessage)
}

func errorIssues(all []essay.Issue) []essay.Issue {
	var out []essay.Issue
	for _, is := range all {
		if !is.CoachingOnly {
			out = append(out, is)
		}
	}
	return out
}

func issueLine(text string, idx *util.UTF16Index, is essay.Issue) string {
	frag := is.Text
	if frag == "" && is.Offsets.Valid(idx.Len()) {
		frag = text[idx.Byte(is.Offsets.Start):idx.Byte(is.Offsets.End)]
	}
	msg := strings.TrimSpace(is.Message)
	if frag == "" || strings.Contains(msg, frag) {
		return msg
	}
	return fmt.Sprintf("%q: %s", util.Truncate(frag, issueContext), msg)
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}

func makeIssuesKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Show all issues", cbAllIssues)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

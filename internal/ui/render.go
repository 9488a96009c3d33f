package ui

import (
	"fmt"
	"html"
	"strings"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

const separator = "➖➖➖➖➖➖➖➖➖➖➖➖➖➖"

func UserLink(userID int64) string {
	return fmt.Sprintf("tg://user?id=%d", userID)
}

// ModerationRequest renders the message the moderator decides on. All user
// supplied fields are escaped for Telegram HTML.
func ModerationRequest(reporterID int64, report model.Report) string {
	lines := []string{
		"📩 <b>New Scam Report Submitted</b>",
		"",
		fmt.Sprintf("👤 <b>Reporter:</b> <a href=\"%s\">Click here</a> (<code>%d</code>)", UserLink(reporterID), reporterID),
		"🕵️ <b>Scammer:</b> " + html.EscapeString(report.Target),
		"💰 <b>Amount:</b> " + html.EscapeString(report.Amount),
		"📝 <b>Description:</b> " + html.EscapeString(report.Description),
	}
	return strings.Join(lines, "\n")
}

func ChannelPost(report model.Report) string {
	lines := []string{
		separator,
		"🚨 <b>SCAMMER ALERT</b>",
		separator,
		"",
		"🕵️ <b>Scammer:</b> " + html.EscapeString(report.Target),
		"💰 <b>Scammed Amount:</b> " + html.EscapeString(report.Amount),
		"📝 <b>Details:</b> " + html.EscapeString(report.Description),
		"",
		"⚠️ <b>Stay alert and don't deal with them!</b>",
	}
	return strings.Join(lines, "\n")
}

func ChannelButtons(reporterID int64, report model.Report) [][]model.Button {
	return [][]model.Button{
		{{Text: "🖼️ View Proofs", URL: report.ProofLink}},
		{{Text: "👤 Reported By", URL: UserLink(reporterID)}},
	}
}

// DecisionFooter appends the terminal status to the moderation message text
// as Telegram delivered it back in the callback (plain text).
func DecisionFooter(original string, decision enums.Decision) string {
	status := "❌ <b>Status: Rejected</b>"
	if decision == enums.DecisionApprove {
		status = "✅ <b>Status: Approved</b>"
	}

	body := html.EscapeString(strings.TrimSpace(original))
	if body == "" {
		return status
	}
	return body + "\n\n" + status
}

package ui

import (
	"fmt"
	"time"
)

const (
	WelcomePrompt = "Welcome to Scammer Report Bot! 👮\n\n" +
		"Step 1: Send the Scammer's @Username (or name if username is not available):"
	DescriptionPrompt = "Step 2: Describe the scam incident in detail:"
	AmountPrompt      = "Step 3: Enter the Scammed Amount (e.g. $100 or ₹5000):"
	ProofPrompt       = "Step 4: Send the Proof Link.\n\n" +
		"Create a channel, upload proofs, and send the link here:"

	EmptyInput  = "Please send a text answer."
	InvalidLink = "❌ Invalid link! Send a valid URL (https://... or t.me/...)"

	ReportSent       = "✅ Your report has been sent to Admin for review."
	ReportPending    = "⏳ Your report is still under review. Send /start to file another one."
	SubmissionFailed = "⚠️ Something went wrong while saving your report. Please send /start and fill it in again."
	DeliveryFailed   = "⚠️ Your report could not be delivered to the Admin right now. Send the proof link again in a moment to retry."

	ReportApproved = "✅ Your report has been approved."
	ReportRejected = "❌ Your report was rejected."

	AckApproved      = "Approved"
	AckRejected      = "Rejected"
	AckReportLost    = "Report data lost!"
	AckInvalidAction = "Invalid action"
	AckPublishFailed = "Publishing to the channel failed, try again"
	AckStoreFailed   = "Storage is unavailable, try again"

	BroadcastUsage = "Usage: /broadcast message"
)

func RateLimited(retryAfter time.Duration) string {
	minutes := int(retryAfter.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("⏳ You have sent too many reports recently. Try again in %d min.", minutes)
}

func Stats(users, active, pending int) string {
	return fmt.Sprintf("📊 <b>Total Users:</b> %d\n📝 <b>Reports in progress:</b> %d\n⏳ <b>Awaiting review:</b> %d", users, active, pending)
}

func BroadcastDone(delivered int) string {
	return fmt.Sprintf("📢 Broadcast sent to %d users.", delivered)
}

package enums

type Step string

const (
	StepAwaitingTarget      Step = "AWAITING_TARGET"
	StepAwaitingDescription Step = "AWAITING_DESCRIPTION"
	StepAwaitingAmount      Step = "AWAITING_AMOUNT"
	StepAwaitingProof       Step = "AWAITING_PROOF"
)

var stepOrder = []Step{
	StepAwaitingTarget,
	StepAwaitingDescription,
	StepAwaitingAmount,
	StepAwaitingProof,
}

// Next returns the step that follows s. The final step has no successor:
// completing it ends the conversation.
func (s Step) Next() (Step, bool) {
	for i, step := range stepOrder {
		if step != s {
			continue
		}
		if i+1 < len(stepOrder) {
			return stepOrder[i+1], true
		}
		return "", false
	}
	return "", false
}

func (s Step) Valid() bool {
	for _, step := range stepOrder {
		if step == s {
			return true
		}
	}
	return false
}

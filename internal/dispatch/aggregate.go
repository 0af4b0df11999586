package dispatch

import "uk.co.dudmesh.bulksms/internal/model"

// Summarize classifies every attempt exactly once.
func Summarize(attempts []model.DispatchAttempt) model.Summary {
	summary := model.Summary{Total: len(attempts)}
	for i := range attempts {
		switch attempts[i].Outcome() {
		case model.OutcomeAccepted:
			summary.Success++
		case model.OutcomeRejected:
			summary.Failed++
		default:
			summary.TransportErrors++
		}
	}
	return summary
}

// OverallSuccess is true when at least one item was accepted. A partially
// failed batch still counts as a success.
func OverallSuccess(summary model.Summary) bool {
	return summary.Success > 0
}

func newBatchResult(groupTag, message string, attempts []model.DispatchAttempt) *model.BatchResult {
	summary := Summarize(attempts)
	return &model.BatchResult{
		GroupTag:       groupTag,
		Message:        message,
		Attempts:       attempts,
		Summary:        summary,
		OverallSuccess: OverallSuccess(summary),
	}
}

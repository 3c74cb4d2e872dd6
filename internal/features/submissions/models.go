// Package submissions — пруфы выполнения заданий и их проверка владельцем.
package submissions

import "serotonyl.ru/taskmarket/internal/ledger"

// Proof — доказательство выполнения. Нужен текст, изображение или оба.
type Proof struct {
	Text  string `json:"proofText"`
	Image string `json:"proofImage"`
}

// ParseDecision переводит решение владельца в статус пруфа.
func ParseDecision(s string) (ledger.SubmissionStatus, bool) {
	switch d := ledger.SubmissionStatus(s); d {
	case ledger.SubmissionApproved, ledger.SubmissionRejected:
		return d, true
	}
	return "", false
}

// Package moderation — заявки на пополнение и вывод, которые проводит администратор.
package moderation

// DepositRequest — заявка на пополнение после перевода на реквизиты площадки.
type DepositRequest struct {
	Amount         int64  `json:"amount"`
	PaymentName    string `json:"paymentName"`
	PaymentReceipt string `json:"paymentReceipt"`
}

// WithdrawalRequest — заявка на вывод на мобильный номер.
type WithdrawalRequest struct {
	Amount      int64  `json:"amount"`
	Network     string `json:"network"`
	PhoneNumber string `json:"phoneNumber"`
}

// Decision — решение администратора по заявке.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

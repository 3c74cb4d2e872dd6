// Package wallet — единственное место, где меняются балансы пользователей.
// models.go описывает представления балансов и истории операций.
package wallet

import "serotonyl.ru/taskmarket/internal/ledger"

// Balances — два независимых баланса пользователя.
type Balances struct {
	Wallet       int64 `json:"walletBalance"`       // Пополняется депозитами, тратится на задания
	Withdrawable int64 `json:"withdrawableBalance"` // Заработок и бонусы, выводится
}

// HistoryPage — страница журнала операций пользователя.
type HistoryPage struct {
	Transactions []*ledger.Transaction `json:"transactions"`
	Total        int                   `json:"total"`
	Pages        int                   `json:"pages"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

// account — какой из балансов меняется.
type account int

const (
	accountWallet account = iota
	accountWithdrawable
)

func (a account) String() string {
	if a == accountWithdrawable {
		return "withdrawable"
	}
	return "wallet"
}

// Package members — регистрация, вход и профиль пользователя маркетплейса.
package members

import "serotonyl.ru/taskmarket/internal/ledger"

// SignupInput — данные регистрации.
type SignupInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"` // Код пригласившего, необязателен
}

// Profile — собственный профиль пользователя с непрочитанными уведомлениями.
type Profile struct {
	User        *ledger.User `json:"user"`
	UnreadCount int          `json:"unreadNotifications"`
}

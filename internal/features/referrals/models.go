// Package referrals — реферальная программа: связь при регистрации и бонус
// пригласившему при каждом одобренном пополнении приглашённого.
package referrals

import "time"

// Referee — приглашённый пользователь в сводке пригласившего.
type Referee struct {
	Email    string    `json:"email"` // Замаскирован
	JoinedAt time.Time `json:"joinedAt"`
}

// Summary — реферальная сводка пользователя.
type Summary struct {
	ReferralCode string    `json:"referralCode"`
	Count        int       `json:"count"`
	Earnings     int64     `json:"earnings"` // Сумма завершённых referral_bonus
	Referees     []Referee `json:"referees"`
}

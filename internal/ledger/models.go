// Package ledger описывает сущности маркетплейса и контракт хранилища.
// models.go — пользователи, задания, пруфы, транзакции, рефералы и уведомления.
//
// Все суммы — целые числа в минимальных единицах валюты (наира).
package ledger

import "time"

// User — аккаунт маркетплейса.
// Балансы меняет только wallet, остальные поля — members и admin.
type User struct {
	ID                  int64     `db:"id" json:"id"`
	Email               string    `db:"email" json:"email"`                              // Хранится в нижнем регистре
	PasswordHash        string    `db:"password_hash" json:"-"`                          // argon2id, наружу не отдаётся
	WalletBalance       int64     `db:"wallet_balance" json:"walletBalance"`             // Тратится на создание заданий
	WithdrawableBalance int64     `db:"withdrawable_balance" json:"withdrawableBalance"` // Заработок, доступный к выводу
	ReferralCode        string    `db:"referral_code" json:"referralCode"`               // QR + 6 цифр
	ReferredBy          string    `db:"referred_by" json:"referredBy"`                   // Код пригласившего (пусто, если нет)
	IsAdmin             bool      `db:"is_admin" json:"isAdmin"`
	IsBanned            bool      `db:"is_banned" json:"isBanned"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
}

// Task — задание с оплатой за каждого исполнителя.
type Task struct {
	ID           int64     `db:"id" json:"id"`
	OwnerID      int64     `db:"owner_id" json:"ownerId"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Link         string    `db:"link" json:"link"`
	PricePerUser int64     `db:"price_per_user" json:"pricePerUser"`
	TotalSlots   int       `db:"total_slots" json:"totalSlots"`
	FilledSlots  int       `db:"filled_slots" json:"filledSlots"` // Растёт только при одобрении пруфа
	IsActive     bool      `db:"is_active" json:"isActive"`       // false — навсегда
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Available — задание можно брать в работу.
func (t *Task) Available() bool {
	return t.IsActive && t.FilledSlots < t.TotalSlots
}

// SubmissionStatus — статус пруфа.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission — пруф выполнения задания.
type Submission struct {
	ID         int64            `db:"id" json:"id"`
	TaskID     int64            `db:"task_id" json:"taskId"`
	UserID     int64            `db:"user_id" json:"userId"`
	ProofText  string           `db:"proof_text" json:"proofText"`
	ProofImage string           `db:"proof_image" json:"proofImage"` // Непрозрачная ссылка/данные изображения
	Status     SubmissionStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
}

// TransactionType — тип записи в журнале движения денег.
type TransactionType string

const (
	TxDeposit       TransactionType = "deposit"
	TxWithdrawal    TransactionType = "withdrawal"
	TxTaskDebit     TransactionType = "task_debit"
	TxTaskCredit    TransactionType = "task_credit"
	TxReferralBonus TransactionType = "referral_bonus"
)

// TransactionStatus — статус записи журнала.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxRejected  TransactionStatus = "rejected"
)

// Transaction — запись журнала. Меняется только статус.
type Transaction struct {
	ID             int64             `db:"id" json:"id"`
	UserID         int64             `db:"user_id" json:"userId"`
	Type           TransactionType   `db:"type" json:"type"`
	Amount         int64             `db:"amount" json:"amount"` // Всегда > 0
	Fee            int64             `db:"fee" json:"fee"`       // Комиссия, зафиксированная при подаче
	Status         TransactionStatus `db:"status" json:"status"`
	Network        string            `db:"network" json:"network"`                // Оператор (вывод)
	PhoneNumber    string            `db:"phone_number" json:"phoneNumber"`       // Номер для вывода
	PaymentName    string            `db:"payment_name" json:"paymentName"`       // Имя плательщика (пополнение)
	PaymentReceipt string            `db:"payment_receipt" json:"paymentReceipt"` // Квитанция (пополнение)
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
}

// Referral — связь «пригласил → приглашённый», создаётся при регистрации.
type Referral struct {
	ID         int64     `db:"id" json:"id"`
	ReferrerID int64     `db:"referrer_id" json:"referrerId"`
	ReferredID int64     `db:"referred_id" json:"referredId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Notification — сообщение пользователю. Меняется только IsRead.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"isRead"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PendingReview — пруф, ожидающий решения владельца, вместе с заданием и автором.
type PendingReview struct {
	Submission     Submission `json:"submission"`
	Task           Task       `json:"task"`
	SubmitterEmail string     `json:"submitterEmail"`
}

// UserSubmission — пруф пользователя с названием задания.
type UserSubmission struct {
	Submission Submission `json:"submission"`
	TaskName   string     `json:"taskName"`
}

// PendingTransaction — заявка в очереди модерации вместе с email автора.
type PendingTransaction struct {
	Transaction Transaction `json:"transaction"`
	UserEmail   string      `json:"userEmail"`
}

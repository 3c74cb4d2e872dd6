// Package ledger — store.go определяет контракт хранилища.
//
// Любое изменение состояния выполняется внутри Store.InTx: если fn вернула
// ошибку, ни одна запись не сохраняется. Методы Lock* блокируют строку до
// конца единицы работы (SELECT ... FOR UPDATE в PostgreSQL), поэтому
// read-modify-write балансов и счётчиков выполняется строго последовательно.
//
// Каждое поле сущности меняет только «свой» компонент: балансы — wallet,
// счётчик слотов — tasks, статус пруфа — submissions, статус заявки —
// moderation, флаг прочтения — notifications.
package ledger

import "context"

// Store — единственный источник истины маркетплейса.
type Store interface {
	// InTx выполняет fn как одну атомарную единицу работы.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx — операции, доступные внутри единицы работы.
type Tx interface {
	Users
	Tasks
	Submissions
	Transactions
	Referrals
	Notifications
}

// Users — операции с аккаунтами.
type Users interface {
	// CreateUser заполняет ID и CreatedAt. Занятый email → common.ErrEmailTaken,
	// занятый реферальный код → common.ErrReferralCodeTaken.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	LockUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*User, error)
	SetUserBalances(ctx context.Context, id int64, wallet, withdrawable int64) error
	SetUserBanned(ctx context.Context, id int64, banned bool) error
	SetUserAdmin(ctx context.Context, id int64, admin bool) error
	SetUserPasswordHash(ctx context.Context, id int64, hash string) error
	ListUsers(ctx context.Context) ([]*User, error)
	ListAdmins(ctx context.Context) ([]*User, error)
}

// TaskListing — задание вместе с email владельца.
type TaskListing struct {
	Task       Task   `json:"task"`
	OwnerEmail string `json:"ownerEmail"`
}

// Tasks — операции с заданиями.
type Tasks interface {
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id int64) (*Task, error)
	LockTask(ctx context.Context, id int64) (*Task, error)
	SetTaskProgress(ctx context.Context, id int64, filled int, active bool) error
	// ListAvailableTasks — активные незаполненные задания, новые первыми.
	ListAvailableTasks(ctx context.Context) ([]TaskListing, error)
	ListTasksByOwner(ctx context.Context, ownerID int64) ([]*Task, error)
}

// Submissions — операции с пруфами.
type Submissions interface {
	// CreateSubmission: повторная пара (task, user) → common.ErrDuplicateSubmission.
	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id int64) (*Submission, error)
	LockSubmission(ctx context.Context, id int64) (*Submission, error)
	SetSubmissionStatus(ctx context.Context, id int64, status SubmissionStatus) error
	HasSubmission(ctx context.Context, taskID, userID int64) (bool, error)
	ListSubmissionsByUser(ctx context.Context, userID int64) ([]UserSubmission, error)
	// ListPendingReviews — ожидающие пруфы к заданиям владельца, новые первыми.
	ListPendingReviews(ctx context.Context, ownerID int64) ([]PendingReview, error)
}

// Transactions — журнал движения денег.
type Transactions interface {
	CreateTransaction(ctx context.Context, t *Transaction) error
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)
	LockTransaction(ctx context.Context, id int64) (*Transaction, error)
	SetTransactionStatus(ctx context.Context, id int64, status TransactionStatus) error
	// ListTransactionsByUser — страница журнала пользователя, новые первыми.
	ListTransactionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error)
	CountTransactionsByUser(ctx context.Context, userID int64) (int, error)
	// ListPendingTransactions — очередь модерации, старые первыми.
	ListPendingTransactions(ctx context.Context, typ TransactionType) ([]PendingTransaction, error)
	SumTransactions(ctx context.Context, userID int64, typ TransactionType, status TransactionStatus) (int64, error)
}

// Referrals — реферальные связи.
type Referrals interface {
	CreateReferral(ctx context.Context, r *Referral) error
	ListReferralsByReferrer(ctx context.Context, referrerID int64) ([]*Referral, error)
}

// Notifications — уведомления пользователей.
type Notifications interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetNotification(ctx context.Context, id int64) (*Notification, error)
	// ListNotifications — новые первыми.
	ListNotifications(ctx context.Context, userID int64) ([]*Notification, error)
	CountUnreadNotifications(ctx context.Context, userID int64) (int, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error)
}

// Package postgres — store.go реализует ledger.Store поверх pgx.
// Единица работы — одна транзакция БД: Begin → fn → Commit, при любой ошибке
// defer Rollback. Методы Lock* читают строку с FOR UPDATE.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store хранит сущности маркетплейса в PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore создаёт хранилище поверх пула соединений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InTx выполняет fn в одной транзакции БД.
func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Имена ограничений уникальности из миграций
const (
	constraintUsersEmail        = "users_email_key"
	constraintUsersReferralCode = "users_referral_code_key"
	constraintSubmissionPair    = "task_submissions_task_user_key"
)

// uniqueViolation возвращает имя нарушенного UNIQUE-ограничения.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// notFound подменяет pgx.ErrNoRows на ошибку «не найдено».
func notFound(err, sentinel error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("ошибка получения %s: %w", what, err)
}

func (t *pgTx) execOne(ctx context.Context, sentinel error, what, sql string, args ...any) error {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel
	}
	return nil
}

// --- Users ---

const userColumns = `id, email, password_hash, wallet_balance, withdrawable_balance,
	referral_code, referred_by, is_admin, is_banned, created_at`

func scanUser(row rowScanner) (*ledger.User, error) {
	var u ledger.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.WalletBalance, &u.WithdrawableBalance,
		&u.ReferralCode, &u.ReferredBy, &u.IsAdmin, &u.IsBanned, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *pgTx) CreateUser(ctx context.Context, u *ledger.User) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, wallet_balance, withdrawable_balance,
			referral_code, referred_by, is_admin, is_banned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.WalletBalance, u.WithdrawableBalance,
		u.ReferralCode, u.ReferredBy, u.IsAdmin, u.IsBanned,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if name, ok := uniqueViolation(err); ok {
			switch name {
			case constraintUsersEmail:
				return common.ErrEmailTaken
			case constraintUsersReferralCode:
				return common.ErrReferralCodeTaken
			}
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (t *pgTx) getUser(ctx context.Context, where string, arg any, lock bool) (*ledger.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if lock {
		sql += ` FOR UPDATE`
	}
	u, err := scanUser(t.tx.QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, notFound(err, common.ErrUserNotFound, "пользователя")
	}
	return u, nil
}

func (t *pgTx) GetUser(ctx context.Context, id int64) (*ledger.User, error) {
	return t.getUser(ctx, "id = $1", id, false)
}

func (t *pgTx) LockUser(ctx context.Context, id int64) (*ledger.User, error) {
	return t.getUser(ctx, "id = $1", id, true)
}

func (t *pgTx) GetUserByEmail(ctx context.Context, email string) (*ledger.User, error) {
	return t.getUser(ctx, "email = $1", email, false)
}

func (t *pgTx) GetUserByReferralCode(ctx context.Context, code string) (*ledger.User, error) {
	return t.getUser(ctx, "referral_code = $1", code, false)
}

func (t *pgTx) SetUserBalances(ctx context.Context, id int64, wallet, withdrawable int64) error {
	return t.execOne(ctx, common.ErrUserNotFound, "баланса", `
		UPDATE users SET wallet_balance = $2, withdrawable_balance = $3 WHERE id = $1
	`, id, wallet, withdrawable)
}

func (t *pgTx) SetUserBanned(ctx context.Context, id int64, banned bool) error {
	return t.execOne(ctx, common.ErrUserNotFound, "пользователя",
		`UPDATE users SET is_banned = $2 WHERE id = $1`, id, banned)
}

func (t *pgTx) SetUserAdmin(ctx context.Context, id int64, admin bool) error {
	return t.execOne(ctx, common.ErrUserNotFound, "пользователя",
		`UPDATE users SET is_admin = $2 WHERE id = $1`, id, admin)
}

func (t *pgTx) SetUserPasswordHash(ctx context.Context, id int64, hash string) error {
	return t.execOne(ctx, common.ErrUserNotFound, "пользователя",
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (t *pgTx) listUsers(ctx context.Context, where string) ([]*ledger.User, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+userColumns+` FROM users `+where+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	var users []*ledger.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (t *pgTx) ListUsers(ctx context.Context) ([]*ledger.User, error) {
	return t.listUsers(ctx, "")
}

func (t *pgTx) ListAdmins(ctx context.Context) ([]*ledger.User, error) {
	return t.listUsers(ctx, "WHERE is_admin")
}

// --- Tasks ---

const taskColumns = `t.id, t.owner_id, t.name, t.description, t.link, t.price_per_user,
	t.total_slots, t.filled_slots, t.is_active, t.created_at`

func scanTask(row rowScanner, extra ...any) (*ledger.Task, error) {
	var task ledger.Task
	dest := []any{
		&task.ID, &task.OwnerID, &task.Name, &task.Description, &task.Link, &task.PricePerUser,
		&task.TotalSlots, &task.FilledSlots, &task.IsActive, &task.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &task, nil
}

func (t *pgTx) CreateTask(ctx context.Context, task *ledger.Task) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tasks (owner_id, name, description, link, price_per_user, total_slots, filled_slots, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, task.OwnerID, task.Name, task.Description, task.Link, task.PricePerUser,
		task.TotalSlots, task.FilledSlots, task.IsActive,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания задания: %w", err)
	}
	return nil
}

func (t *pgTx) getTask(ctx context.Context, id int64, lock bool) (*ledger.Task, error) {
	sql := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	task, err := scanTask(t.tx.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err, common.ErrTaskNotFound, "задания")
	}
	return task, nil
}

func (t *pgTx) GetTask(ctx context.Context, id int64) (*ledger.Task, error) {
	return t.getTask(ctx, id, false)
}

func (t *pgTx) LockTask(ctx context.Context, id int64) (*ledger.Task, error) {
	return t.getTask(ctx, id, true)
}

func (t *pgTx) SetTaskProgress(ctx context.Context, id int64, filled int, active bool) error {
	return t.execOne(ctx, common.ErrTaskNotFound, "задания",
		`UPDATE tasks SET filled_slots = $2, is_active = $3 WHERE id = $1`, id, filled, active)
}

func (t *pgTx) ListAvailableTasks(ctx context.Context) ([]ledger.TaskListing, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+taskColumns+`, u.email
		FROM tasks t
		JOIN users u ON u.id = t.owner_id
		WHERE t.is_active AND t.filled_slots < t.total_slots
		ORDER BY t.created_at DESC, t.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заданий: %w", err)
	}
	defer rows.Close()

	var out []ledger.TaskListing
	for rows.Next() {
		var email string
		task, err := scanTask(rows, &email)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования задания: %w", err)
		}
		out = append(out, ledger.TaskListing{Task: *task, OwnerEmail: email})
	}
	return out, rows.Err()
}

func (t *pgTx) ListTasksByOwner(ctx context.Context, ownerID int64) ([]*ledger.Task, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.owner_id = $1
		ORDER BY t.created_at DESC, t.id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заданий: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования задания: %w", err)
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// --- Submissions ---

const submissionColumns = `s.id, s.task_id, s.user_id, s.proof_text, s.proof_image, s.status, s.created_at`

func scanSubmission(row rowScanner, extra ...any) (*ledger.Submission, error) {
	var sub ledger.Submission
	var status string
	dest := []any{&sub.ID, &sub.TaskID, &sub.UserID, &sub.ProofText, &sub.ProofImage, &status, &sub.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	sub.Status = ledger.SubmissionStatus(status)
	return &sub, nil
}

func (t *pgTx) CreateSubmission(ctx context.Context, sub *ledger.Submission) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO task_submissions (task_id, user_id, proof_text, proof_image, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, sub.TaskID, sub.UserID, sub.ProofText, sub.ProofImage, string(sub.Status),
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		if name, ok := uniqueViolation(err); ok && name == constraintSubmissionPair {
			return common.ErrDuplicateSubmission
		}
		return fmt.Errorf("ошибка создания пруфа: %w", err)
	}
	return nil
}

func (t *pgTx) getSubmission(ctx context.Context, id int64, lock bool) (*ledger.Submission, error) {
	sql := `SELECT ` + submissionColumns + ` FROM task_submissions s WHERE s.id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	sub, err := scanSubmission(t.tx.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err, common.ErrSubmissionNotFound, "пруфа")
	}
	return sub, nil
}

func (t *pgTx) GetSubmission(ctx context.Context, id int64) (*ledger.Submission, error) {
	return t.getSubmission(ctx, id, false)
}

func (t *pgTx) LockSubmission(ctx context.Context, id int64) (*ledger.Submission, error) {
	return t.getSubmission(ctx, id, true)
}

func (t *pgTx) SetSubmissionStatus(ctx context.Context, id int64, status ledger.SubmissionStatus) error {
	return t.execOne(ctx, common.ErrSubmissionNotFound, "пруфа",
		`UPDATE task_submissions SET status = $2 WHERE id = $1`, id, string(status))
}

func (t *pgTx) HasSubmission(ctx context.Context, taskID, userID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM task_submissions WHERE task_id = $1 AND user_id = $2)
	`, taskID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки пруфа: %w", err)
	}
	return exists, nil
}

func (t *pgTx) ListSubmissionsByUser(ctx context.Context, userID int64) ([]ledger.UserSubmission, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+submissionColumns+`, t.name
		FROM task_submissions s
		JOIN tasks t ON t.id = s.task_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пруфов: %w", err)
	}
	defer rows.Close()

	var out []ledger.UserSubmission
	for rows.Next() {
		var taskName string
		sub, err := scanSubmission(rows, &taskName)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пруфа: %w", err)
		}
		out = append(out, ledger.UserSubmission{Submission: *sub, TaskName: taskName})
	}
	return out, rows.Err()
}

func (t *pgTx) ListPendingReviews(ctx context.Context, ownerID int64) ([]ledger.PendingReview, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+submissionColumns+`, `+taskColumns+`, u.email
		FROM task_submissions s
		JOIN tasks t ON t.id = s.task_id
		JOIN users u ON u.id = s.user_id
		WHERE t.owner_id = $1 AND s.status = 'pending'
		ORDER BY s.created_at DESC, s.id DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пруфов на проверку: %w", err)
	}
	defer rows.Close()

	var out []ledger.PendingReview
	for rows.Next() {
		var (
			r      ledger.PendingReview
			status string
		)
		err := rows.Scan(
			&r.Submission.ID, &r.Submission.TaskID, &r.Submission.UserID,
			&r.Submission.ProofText, &r.Submission.ProofImage, &status, &r.Submission.CreatedAt,
			&r.Task.ID, &r.Task.OwnerID, &r.Task.Name, &r.Task.Description, &r.Task.Link,
			&r.Task.PricePerUser, &r.Task.TotalSlots, &r.Task.FilledSlots, &r.Task.IsActive, &r.Task.CreatedAt,
			&r.SubmitterEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пруфа: %w", err)
		}
		r.Submission.Status = ledger.SubmissionStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- Transactions ---

const transactionColumns = `tr.id, tr.user_id, tr.type, tr.amount, tr.fee, tr.status, tr.network,
	tr.phone_number, tr.payment_name, tr.payment_receipt, tr.created_at`

func scanTransaction(row rowScanner, extra ...any) (*ledger.Transaction, error) {
	var (
		tr          ledger.Transaction
		typ, status string
	)
	dest := []any{
		&tr.ID, &tr.UserID, &typ, &tr.Amount, &tr.Fee, &status, &tr.Network,
		&tr.PhoneNumber, &tr.PaymentName, &tr.PaymentReceipt, &tr.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	tr.Type = ledger.TransactionType(typ)
	tr.Status = ledger.TransactionStatus(status)
	return &tr, nil
}

func (t *pgTx) CreateTransaction(ctx context.Context, tr *ledger.Transaction) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, type, amount, fee, status, network, phone_number, payment_name, payment_receipt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, tr.UserID, string(tr.Type), tr.Amount, tr.Fee, string(tr.Status), tr.Network,
		tr.PhoneNumber, tr.PaymentName, tr.PaymentReceipt,
	).Scan(&tr.ID, &tr.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}

func (t *pgTx) getTransaction(ctx context.Context, id int64, lock bool) (*ledger.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions tr WHERE tr.id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	tr, err := scanTransaction(t.tx.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err, common.ErrTransactionNotFound, "транзакции")
	}
	return tr, nil
}

func (t *pgTx) GetTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	return t.getTransaction(ctx, id, false)
}

func (t *pgTx) LockTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	return t.getTransaction(ctx, id, true)
}

func (t *pgTx) SetTransactionStatus(ctx context.Context, id int64, status ledger.TransactionStatus) error {
	return t.execOne(ctx, common.ErrTransactionNotFound, "транзакции",
		`UPDATE transactions SET status = $2 WHERE id = $1`, id, string(status))
}

func (t *pgTx) ListTransactionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions tr
		WHERE tr.user_id = $1
		ORDER BY tr.created_at DESC, tr.id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (t *pgTx) CountTransactionsByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта транзакций: %w", err)
	}
	return n, nil
}

func (t *pgTx) ListPendingTransactions(ctx context.Context, typ ledger.TransactionType) ([]ledger.PendingTransaction, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+transactionColumns+`, u.email
		FROM transactions tr
		JOIN users u ON u.id = tr.user_id
		WHERE tr.type = $1 AND tr.status = 'pending'
		ORDER BY tr.created_at ASC, tr.id ASC
	`, string(typ))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	var out []ledger.PendingTransaction
	for rows.Next() {
		var email string
		tr, err := scanTransaction(rows, &email)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		out = append(out, ledger.PendingTransaction{Transaction: *tr, UserEmail: email})
	}
	return out, rows.Err()
}

func (t *pgTx) SumTransactions(ctx context.Context, userID int64, typ ledger.TransactionType, status ledger.TransactionStatus) (int64, error) {
	var sum int64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
	`, userID, string(typ), string(status)).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта суммы: %w", err)
	}
	return sum, nil
}

// --- Referrals ---

func (t *pgTx) CreateReferral(ctx context.Context, r *ledger.Referral) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO referrals (referrer_id, referred_id) VALUES ($1, $2)
		RETURNING id, created_at
	`, r.ReferrerID, r.ReferredID).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания реферала: %w", err)
	}
	return nil
}

func (t *pgTx) ListReferralsByReferrer(ctx context.Context, referrerID int64) ([]*ledger.Referral, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, referrer_id, referred_id, created_at FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC, id DESC
	`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рефералов: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Referral
	for rows.Next() {
		var r ledger.Referral
		if err := rows.Scan(&r.ID, &r.ReferrerID, &r.ReferredID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования реферала: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Notifications ---

func scanNotification(row rowScanner) (*ledger.Notification, error) {
	var n ledger.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (t *pgTx) CreateNotification(ctx context.Context, n *ledger.Notification) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO notifications (user_id, message, is_read) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, n.UserID, n.Message, n.IsRead).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания уведомления: %w", err)
	}
	return nil
}

func (t *pgTx) GetNotification(ctx context.Context, id int64) (*ledger.Notification, error) {
	n, err := scanNotification(t.tx.QueryRow(ctx, `
		SELECT id, user_id, message, is_read, created_at FROM notifications WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err, common.ErrNotificationNotFound, "уведомления")
	}
	return n, nil
}

func (t *pgTx) ListNotifications(ctx context.Context, userID int64) ([]*ledger.Notification, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, user_id, message, is_read, created_at FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения уведомлений: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования уведомления: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (t *pgTx) CountUnreadNotifications(ctx context.Context, userID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта уведомлений: %w", err)
	}
	return n, nil
}

func (t *pgTx) MarkNotificationRead(ctx context.Context, id int64) error {
	return t.execOne(ctx, common.ErrNotificationNotFound, "уведомления",
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
}

func (t *pgTx) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления уведомлений: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

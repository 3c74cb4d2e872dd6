// Package memory — хранилище маркетплейса в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory.
//
// Единица работы держит общий мьютекс от начала до конца, поэтому все
// единицы выполняются строго последовательно. Каждая запись регистрирует
// обратную операцию в журнале отката: если fn вернула ошибку, журнал
// проигрывается в обратном порядке и состояние возвращается к исходному.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store хранит все сущности в map-ах.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	seq map[string]int64

	users         map[int64]ledger.User
	usersByEmail  map[string]int64
	usersByCode   map[string]int64
	tasks         map[int64]ledger.Task
	submissions   map[int64]ledger.Submission
	submissionKey map[[2]int64]int64 // (task, user) → submission
	transactions  map[int64]ledger.Transaction
	referrals     map[int64]ledger.Referral
	notifications map[int64]ledger.Notification
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		seq:           make(map[string]int64),
		users:         make(map[int64]ledger.User),
		usersByEmail:  make(map[string]int64),
		usersByCode:   make(map[string]int64),
		tasks:         make(map[int64]ledger.Task),
		submissions:   make(map[int64]ledger.Submission),
		submissionKey: make(map[[2]int64]int64),
		transactions:  make(map[int64]ledger.Transaction),
		referrals:     make(map[int64]ledger.Referral),
		notifications: make(map[int64]ledger.Notification),
	}
}

// SetClock подменяет источник времени (для тестов).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// InTx выполняет fn под общим мьютексом; при ошибке или панике откатывает все записи.
func (s *Store) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	// Отмена контекста до «коммита» откатывает единицу, как в PostgreSQL
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) nextID(entity string) int64 {
	s.seq[entity]++
	return s.seq[entity]
}

// memTx — единица работы с журналом отката.
type memTx struct {
	s    *Store
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) record(fn func()) {
	t.undo = append(t.undo, fn)
}

// --- Users ---

func (t *memTx) CreateUser(_ context.Context, u *ledger.User) error {
	s := t.s
	if _, ok := s.usersByEmail[u.Email]; ok {
		return common.ErrEmailTaken
	}
	if _, ok := s.usersByCode[u.ReferralCode]; ok {
		return common.ErrReferralCodeTaken
	}

	u.ID = s.nextID("users")
	u.CreatedAt = s.now()
	s.users[u.ID] = *u
	s.usersByEmail[u.Email] = u.ID
	s.usersByCode[u.ReferralCode] = u.ID

	id, email, code := u.ID, u.Email, u.ReferralCode
	t.record(func() {
		delete(s.users, id)
		delete(s.usersByEmail, email)
		delete(s.usersByCode, code)
	})
	return nil
}

func (t *memTx) GetUser(_ context.Context, id int64) (*ledger.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return &u, nil
}

func (t *memTx) LockUser(ctx context.Context, id int64) (*ledger.User, error) {
	return t.GetUser(ctx, id)
}

func (t *memTx) GetUserByEmail(ctx context.Context, email string) (*ledger.User, error) {
	id, ok := t.s.usersByEmail[email]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return t.GetUser(ctx, id)
}

func (t *memTx) GetUserByReferralCode(ctx context.Context, code string) (*ledger.User, error) {
	id, ok := t.s.usersByCode[code]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return t.GetUser(ctx, id)
}

func (t *memTx) updateUser(id int64, fn func(u *ledger.User)) error {
	prev, ok := t.s.users[id]
	if !ok {
		return common.ErrUserNotFound
	}
	next := prev
	fn(&next)
	t.s.users[id] = next
	t.record(func() { t.s.users[id] = prev })
	return nil
}

func (t *memTx) SetUserBalances(_ context.Context, id int64, wallet, withdrawable int64) error {
	return t.updateUser(id, func(u *ledger.User) {
		u.WalletBalance = wallet
		u.WithdrawableBalance = withdrawable
	})
}

func (t *memTx) SetUserBanned(_ context.Context, id int64, banned bool) error {
	return t.updateUser(id, func(u *ledger.User) { u.IsBanned = banned })
}

func (t *memTx) SetUserAdmin(_ context.Context, id int64, admin bool) error {
	return t.updateUser(id, func(u *ledger.User) { u.IsAdmin = admin })
}

func (t *memTx) SetUserPasswordHash(_ context.Context, id int64, hash string) error {
	return t.updateUser(id, func(u *ledger.User) { u.PasswordHash = hash })
}

func (t *memTx) ListUsers(_ context.Context) ([]*ledger.User, error) {
	out := make([]*ledger.User, 0, len(t.s.users))
	for _, u := range t.s.users {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) ListAdmins(ctx context.Context) ([]*ledger.User, error) {
	all, _ := t.ListUsers(ctx)
	out := all[:0]
	for _, u := range all {
		if u.IsAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- Tasks ---

func (t *memTx) CreateTask(_ context.Context, task *ledger.Task) error {
	s := t.s
	task.ID = s.nextID("tasks")
	task.CreatedAt = s.now()
	s.tasks[task.ID] = *task

	id := task.ID
	t.record(func() { delete(s.tasks, id) })
	return nil
}

func (t *memTx) GetTask(_ context.Context, id int64) (*ledger.Task, error) {
	task, ok := t.s.tasks[id]
	if !ok {
		return nil, common.ErrTaskNotFound
	}
	return &task, nil
}

func (t *memTx) LockTask(ctx context.Context, id int64) (*ledger.Task, error) {
	return t.GetTask(ctx, id)
}

func (t *memTx) SetTaskProgress(_ context.Context, id int64, filled int, active bool) error {
	prev, ok := t.s.tasks[id]
	if !ok {
		return common.ErrTaskNotFound
	}
	next := prev
	next.FilledSlots = filled
	next.IsActive = active
	t.s.tasks[id] = next
	t.record(func() { t.s.tasks[id] = prev })
	return nil
}

func (t *memTx) ListAvailableTasks(_ context.Context) ([]ledger.TaskListing, error) {
	var out []ledger.TaskListing
	for _, task := range t.s.tasks {
		if !task.Available() {
			continue
		}
		out = append(out, ledger.TaskListing{
			Task:       task,
			OwnerEmail: t.s.users[task.OwnerID].Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task.ID > out[j].Task.ID })
	return out, nil
}

func (t *memTx) ListTasksByOwner(_ context.Context, ownerID int64) ([]*ledger.Task, error) {
	var out []*ledger.Task
	for _, task := range t.s.tasks {
		if task.OwnerID == ownerID {
			task := task
			out = append(out, &task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- Submissions ---

func (t *memTx) CreateSubmission(_ context.Context, sub *ledger.Submission) error {
	s := t.s
	key := [2]int64{sub.TaskID, sub.UserID}
	if _, ok := s.submissionKey[key]; ok {
		return common.ErrDuplicateSubmission
	}

	sub.ID = s.nextID("submissions")
	sub.CreatedAt = s.now()
	s.submissions[sub.ID] = *sub
	s.submissionKey[key] = sub.ID

	id := sub.ID
	t.record(func() {
		delete(s.submissions, id)
		delete(s.submissionKey, key)
	})
	return nil
}

func (t *memTx) GetSubmission(_ context.Context, id int64) (*ledger.Submission, error) {
	sub, ok := t.s.submissions[id]
	if !ok {
		return nil, common.ErrSubmissionNotFound
	}
	return &sub, nil
}

func (t *memTx) LockSubmission(ctx context.Context, id int64) (*ledger.Submission, error) {
	return t.GetSubmission(ctx, id)
}

func (t *memTx) SetSubmissionStatus(_ context.Context, id int64, status ledger.SubmissionStatus) error {
	prev, ok := t.s.submissions[id]
	if !ok {
		return common.ErrSubmissionNotFound
	}
	next := prev
	next.Status = status
	t.s.submissions[id] = next
	t.record(func() { t.s.submissions[id] = prev })
	return nil
}

func (t *memTx) HasSubmission(_ context.Context, taskID, userID int64) (bool, error) {
	_, ok := t.s.submissionKey[[2]int64{taskID, userID}]
	return ok, nil
}

func (t *memTx) ListSubmissionsByUser(_ context.Context, userID int64) ([]ledger.UserSubmission, error) {
	var out []ledger.UserSubmission
	for _, sub := range t.s.submissions {
		if sub.UserID != userID {
			continue
		}
		out = append(out, ledger.UserSubmission{
			Submission: sub,
			TaskName:   t.s.tasks[sub.TaskID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Submission.ID > out[j].Submission.ID })
	return out, nil
}

func (t *memTx) ListPendingReviews(_ context.Context, ownerID int64) ([]ledger.PendingReview, error) {
	var out []ledger.PendingReview
	for _, sub := range t.s.submissions {
		if sub.Status != ledger.SubmissionPending {
			continue
		}
		task := t.s.tasks[sub.TaskID]
		if task.OwnerID != ownerID {
			continue
		}
		out = append(out, ledger.PendingReview{
			Submission:     sub,
			Task:           task,
			SubmitterEmail: t.s.users[sub.UserID].Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Submission.ID > out[j].Submission.ID })
	return out, nil
}

// --- Transactions ---

func (t *memTx) CreateTransaction(_ context.Context, tr *ledger.Transaction) error {
	s := t.s
	tr.ID = s.nextID("transactions")
	tr.CreatedAt = s.now()
	s.transactions[tr.ID] = *tr

	id := tr.ID
	t.record(func() { delete(s.transactions, id) })
	return nil
}

func (t *memTx) GetTransaction(_ context.Context, id int64) (*ledger.Transaction, error) {
	tr, ok := t.s.transactions[id]
	if !ok {
		return nil, common.ErrTransactionNotFound
	}
	return &tr, nil
}

func (t *memTx) LockTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	return t.GetTransaction(ctx, id)
}

func (t *memTx) SetTransactionStatus(_ context.Context, id int64, status ledger.TransactionStatus) error {
	prev, ok := t.s.transactions[id]
	if !ok {
		return common.ErrTransactionNotFound
	}
	next := prev
	next.Status = status
	t.s.transactions[id] = next
	t.record(func() { t.s.transactions[id] = prev })
	return nil
}

func (t *memTx) userTransactions(userID int64) []*ledger.Transaction {
	var out []*ledger.Transaction
	for _, tr := range t.s.transactions {
		if tr.UserID == userID {
			tr := tr
			out = append(out, &tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (t *memTx) ListTransactionsByUser(_ context.Context, userID int64, limit, offset int) ([]*ledger.Transaction, error) {
	all := t.userTransactions(userID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (t *memTx) CountTransactionsByUser(_ context.Context, userID int64) (int, error) {
	return len(t.userTransactions(userID)), nil
}

func (t *memTx) ListPendingTransactions(_ context.Context, typ ledger.TransactionType) ([]ledger.PendingTransaction, error) {
	var out []ledger.PendingTransaction
	for _, tr := range t.s.transactions {
		if tr.Type != typ || tr.Status != ledger.TxPending {
			continue
		}
		out = append(out, ledger.PendingTransaction{
			Transaction: tr,
			UserEmail:   t.s.users[tr.UserID].Email,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transaction.ID < out[j].Transaction.ID })
	return out, nil
}

func (t *memTx) SumTransactions(_ context.Context, userID int64, typ ledger.TransactionType, status ledger.TransactionStatus) (int64, error) {
	var sum int64
	for _, tr := range t.s.transactions {
		if tr.UserID == userID && tr.Type == typ && tr.Status == status {
			sum += tr.Amount
		}
	}
	return sum, nil
}

// --- Referrals ---

func (t *memTx) CreateReferral(_ context.Context, r *ledger.Referral) error {
	s := t.s
	r.ID = s.nextID("referrals")
	r.CreatedAt = s.now()
	s.referrals[r.ID] = *r

	id := r.ID
	t.record(func() { delete(s.referrals, id) })
	return nil
}

func (t *memTx) ListReferralsByReferrer(_ context.Context, referrerID int64) ([]*ledger.Referral, error) {
	var out []*ledger.Referral
	for _, r := range t.s.referrals {
		if r.ReferrerID == referrerID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- Notifications ---

func (t *memTx) CreateNotification(_ context.Context, n *ledger.Notification) error {
	s := t.s
	n.ID = s.nextID("notifications")
	n.CreatedAt = s.now()
	s.notifications[n.ID] = *n

	id := n.ID
	t.record(func() { delete(s.notifications, id) })
	return nil
}

func (t *memTx) GetNotification(_ context.Context, id int64) (*ledger.Notification, error) {
	n, ok := t.s.notifications[id]
	if !ok {
		return nil, common.ErrNotificationNotFound
	}
	return &n, nil
}

func (t *memTx) ListNotifications(_ context.Context, userID int64) ([]*ledger.Notification, error) {
	var out []*ledger.Notification
	for _, n := range t.s.notifications {
		if n.UserID == userID {
			n := n
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memTx) CountUnreadNotifications(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range t.s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (t *memTx) MarkNotificationRead(_ context.Context, id int64) error {
	prev, ok := t.s.notifications[id]
	if !ok {
		return common.ErrNotificationNotFound
	}
	next := prev
	next.IsRead = true
	t.s.notifications[id] = next
	t.record(func() { t.s.notifications[id] = prev })
	return nil
}

func (t *memTx) MarkAllNotificationsRead(_ context.Context, userID int64) (int, error) {
	count := 0
	for id, n := range t.s.notifications {
		if n.UserID != userID || n.IsRead {
			continue
		}
		prev := n
		n.IsRead = true
		t.s.notifications[id] = n
		id := id
		t.record(func() { t.s.notifications[id] = prev })
		count++
	}
	return count, nil
}

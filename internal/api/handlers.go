// Package api — handlers.go: обработчики маршрутов. Каждый обработчик
// разбирает запрос, вызывает один сервис и отдаёт результат как JSON.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/features/members"
	"serotonyl.ru/taskmarket/internal/features/moderation"
	"serotonyl.ru/taskmarket/internal/features/submissions"
	"serotonyl.ru/taskmarket/internal/features/tasks"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// sessionResponse — ответ на регистрацию и вход.
type sessionResponse struct {
	User      *ledger.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reviewRequest struct {
	Decision string `json:"decision"`
}

type banRequest struct {
	Banned bool `json:"banned"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request, status int, u *ledger.User) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, sessionResponse{User: u, Token: token, ExpiresAt: exp})
}

// --- Аккаунт ---

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in members.SignupInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Members.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.session(w, r, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Members.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.session(w, r, http.StatusOK, u)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Members.Profile(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Referrals.Summary(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// --- Задания ---

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Tasks.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Tasks.ListByOwner(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.svc.Tasks.Get(r.Context(), userID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in tasks.CreateInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.svc.Tasks.Create(r.Context(), userID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleDeactivateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	task, err := s.svc.Tasks.Deactivate(r.Context(), userID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// --- Пруфы ---

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var proof submissions.Proof
	if err := decode(r, &proof); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := s.svc.Submissions.Submit(r.Context(), userID(r.Context()), id, proof)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in reviewRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	decision, ok := submissions.ParseDecision(in.Decision)
	if !ok {
		writeError(w, r, common.ErrInvalidDecision)
		return
	}
	sub, err := s.svc.Submissions.Review(r.Context(), userID(r.Context()), id, decision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Submissions.ListByUser(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMyReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Submissions.PendingForOwner(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// --- Кошелёк ---

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Wallet.Balances(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	// Нечисловая страница считается первой
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	h, err := s.svc.Wallet.History(r.Context(), userID(r.Context()), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleRequestDeposit(w http.ResponseWriter, r *http.Request) {
	var in moderation.DepositRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Moderation.RequestDeposit(r.Context(), userID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var in moderation.WithdrawalRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Moderation.RequestWithdrawal(r.Context(), userID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// --- Уведомления ---

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Notifications.List(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*ledger.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.UnreadCount(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Notifications.MarkRead(r.Context(), userID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Notifications.MarkAllRead(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}

// --- Администрирование ---

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Admin.ListUsers(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminBan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in banRequest
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.Admin.SetBanned(r.Context(), userID(r.Context()), id, in.Banned)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleAdminDeposits(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Moderation.PendingDeposits(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminWithdrawals(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Moderation.PendingWithdrawals(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminDeposit(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, ledger.TxDeposit)
}

func (s *Server) handleAdminWithdrawal(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, ledger.TxWithdrawal)
}

func (s *Server) decide(w http.ResponseWriter, r *http.Request, typ ledger.TransactionType) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d := moderation.Decision(chi.URLParam(r, "decision"))
	if d != moderation.Approve && d != moderation.Reject {
		writeJSON(w, http.StatusNotFound, errorBody{Error: string(common.KindNotFound), Message: "route not found"})
		return
	}
	t, err := s.svc.Moderation.Decide(r.Context(), userID(r.Context()), id, typ, d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

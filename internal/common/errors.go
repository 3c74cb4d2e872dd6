// Package common — errors.go определяет ошибки ядра маркетплейса.
// Каждая ошибка относится к одному из видов (Kind). Вид — стабильная часть
// контракта: по нему транспорт выбирает HTTP-статус, а клиент — сообщение.
package common

import "errors"

// Kind — вид ошибки.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindUnauthorized        Kind = "unauthorized"
	KindInvalidState        Kind = "invalid_state"
	KindDuplicateSubmission Kind = "duplicate_submission"
	KindSelfSubmission      Kind = "self_submission"
	KindValidation          Kind = "validation_error"
	KindInternal            Kind = "internal"
)

// Базовые ошибки по видам. Конкретные ошибки ниже разворачиваются в них,
// поэтому errors.Is(ErrTaskFull, ErrInvalidState) == true.
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientFunds   = errors.New("insufficient funds, please fund your wallet")
	ErrUnauthorized        = errors.New("not allowed")
	ErrInvalidState        = errors.New("invalid state")
	ErrDuplicateSubmission = errors.New("you have already submitted a proof for this task")
	ErrSelfSubmission      = errors.New("you cannot complete your own task")
	ErrValidation          = errors.New("invalid input")
)

// Ошибки «не найдено»
var (
	ErrUserNotFound         = kindError(ErrNotFound, "user not found")
	ErrTaskNotFound         = kindError(ErrNotFound, "task not found")
	ErrSubmissionNotFound   = kindError(ErrNotFound, "submission not found")
	ErrTransactionNotFound  = kindError(ErrNotFound, "transaction not found")
	ErrNotificationNotFound = kindError(ErrNotFound, "notification not found")
)

// Ошибки состояния
var (
	// ErrTaskInactive — задание деактивировано (вручную или после заполнения)
	ErrTaskInactive = kindError(ErrInvalidState, "this task is no longer active")
	// ErrTaskFull — все слоты задания заняты
	ErrTaskFull = kindError(ErrInvalidState, "all slots for this task have been filled")
	// ErrAlreadyReviewed — пруф уже одобрен или отклонён
	ErrAlreadyReviewed = kindError(ErrInvalidState, "this submission has already been reviewed")
	// ErrNotPending — заявка уже обработана модератором
	ErrNotPending = kindError(ErrInvalidState, "transaction is not pending")
	// ErrWrongTransactionType — заявка другого типа (например, вывод вместо пополнения)
	ErrWrongTransactionType = kindError(ErrInvalidState, "transaction has a different type")
)

// Ошибки доступа
var (
	ErrNotAdmin       = kindError(ErrUnauthorized, "admin rights required")
	ErrNotTaskOwner   = kindError(ErrUnauthorized, "you are not the owner of this task")
	ErrNotOwner       = kindError(ErrUnauthorized, "this record belongs to another user")
	ErrUserBanned     = kindError(ErrUnauthorized, "your account has been banned")
	ErrWrongPassword  = kindError(ErrUnauthorized, "invalid credentials")
	ErrInvalidToken   = kindError(ErrUnauthorized, "invalid or expired token")
	ErrMissingSession = kindError(ErrUnauthorized, "authentication required")
)

// Ошибки валидации
var (
	// ErrInvalidAmount — сумма должна быть положительной
	ErrInvalidAmount        = kindError(ErrValidation, "amount must be positive")
	ErrAmountBelowFee       = kindError(ErrValidation, "deposit amount must exceed the service fee")
	ErrPriceTooLow          = kindError(ErrValidation, "price per user is below the minimum")
	ErrInvalidSlots         = kindError(ErrValidation, "total slots must be at least 1")
	ErrAmountOverflow       = kindError(ErrValidation, "amount is too large")
	ErrInvalidPhone         = kindError(ErrValidation, "invalid phone number")
	ErrInvalidNetwork       = kindError(ErrValidation, "unsupported network")
	ErrInvalidEmail         = kindError(ErrValidation, "invalid email address")
	ErrWeakPassword         = kindError(ErrValidation, "password is too short")
	ErrEmailTaken           = kindError(ErrValidation, "email already registered")
	ErrInvalidReferralCode  = kindError(ErrValidation, "invalid referral code")
	ErrInvalidDecision      = kindError(ErrValidation, "decision must be approved or rejected")
	ErrEmptyProof           = kindError(ErrValidation, "proof text or image is required")
	ErrEmptyPaymentDetails  = kindError(ErrValidation, "payment name or receipt is required")
	ErrMissingField         = kindError(ErrValidation, "required field is empty")
	ErrSelfBan              = kindError(ErrValidation, "admins cannot ban themselves")
	ErrMalformedBody        = kindError(ErrValidation, "malformed request body")
	ErrInvalidID            = kindError(ErrValidation, "invalid id")
)

// ErrReferralCodeTaken — коллизия сгенерированного реферального кода.
// Наружу не уходит: members перегенерирует код.
var ErrReferralCodeTaken = errors.New("referral code collision")

// KindOf возвращает вид ошибки. Ошибки вне таксономии считаются внутренними.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrDuplicateSubmission):
		return KindDuplicateSubmission
	case errors.Is(err, ErrSelfSubmission):
		return KindSelfSubmission
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}

// codedError — конкретная ошибка, привязанная к базовой.
type codedError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &codedError{kind: kind, msg: msg}
}

func (e *codedError) Error() string { return e.msg }

func (e *codedError) Unwrap() error { return e.kind }

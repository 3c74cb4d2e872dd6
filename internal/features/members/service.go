// Package members — service.go содержит регистрацию, вход и назначение
// администратора при старте.
package members

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/features/referrals"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/metrics"
)

const (
	referralPrefix   = "QR"
	referralDigits   = 6
	codeAttempts     = 5
	maxPasswordBytes = 1024
)

// Service управляет аккаунтами.
type Service struct {
	store     ledger.Store
	referrals *referrals.Service
	cfg       *config.Config
}

// NewService создаёт сервис участников.
func NewService(store ledger.Store, r *referrals.Service, cfg *config.Config) *Service {
	return &Service{store: store, referrals: r, cfg: cfg}
}

// Signup регистрирует пользователя. Если указан код пригласившего, создаётся
// реферальная связь и пригласивший получает уведомление.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*ledger.User, error) {
	email := common.NormalizeEmail(in.Email)
	if !common.ValidEmail(email) {
		return nil, common.ErrInvalidEmail
	}
	if len(in.Password) < s.cfg.MinPasswordLength || len(in.Password) > maxPasswordBytes {
		return nil, common.ErrWeakPassword
	}
	refCode := strings.ToUpper(strings.TrimSpace(in.ReferralCode))

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var user *ledger.User
	for attempt := 1; ; attempt++ {
		user, err = s.signupOnce(ctx, email, hash, refCode)
		if !errors.Is(err, common.ErrReferralCodeTaken) || attempt == codeAttempts {
			break
		}
		log.WithField("attempt", attempt).Warn("Коллизия реферального кода, повторяем")
	}
	if err != nil {
		return nil, err
	}

	metrics.Signups.WithLabelValues(strconv.FormatBool(refCode != "")).Inc()
	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"referred": refCode != "",
	}).Info("Новый пользователь зарегистрирован")
	return user, nil
}

func (s *Service) signupOnce(ctx context.Context, email, hash, refCode string) (*ledger.User, error) {
	var user *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.GetUserByEmail(ctx, email)
		if err == nil {
			return common.ErrEmailTaken
		}
		if !errors.Is(err, common.ErrUserNotFound) {
			return err
		}

		var referrer *ledger.User
		if refCode != "" {
			referrer, err = tx.GetUserByReferralCode(ctx, refCode)
			if errors.Is(err, common.ErrUserNotFound) {
				return common.ErrInvalidReferralCode
			}
			if err != nil {
				return err
			}
		}

		code, err := s.freeReferralCode(ctx, tx)
		if err != nil {
			return err
		}

		user = &ledger.User{
			Email:        email,
			PasswordHash: hash,
			ReferralCode: code,
			ReferredBy:   refCode,
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}

		if referrer != nil {
			return s.referrals.Link(ctx, tx, referrer.ID, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// freeReferralCode подбирает незанятый код. Гонку между проверкой и вставкой
// ловит уникальный индекс, Signup тогда повторяет регистрацию целиком.
func (s *Service) freeReferralCode(ctx context.Context, tx ledger.Tx) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		_, err = tx.GetUserByReferralCode(ctx, code)
		if errors.Is(err, common.ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", common.ErrReferralCodeTaken
}

// generateReferralCode возвращает "QR" и 6 случайных цифр.
func generateReferralCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации реферального кода: %w", err)
	}
	return fmt.Sprintf("%s%0*d", referralPrefix, referralDigits, n.Int64()), nil
}

// Authenticate проверяет email и пароль. Неизвестный email и неверный пароль
// неразличимы для вызывающего.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*ledger.User, error) {
	email = common.NormalizeEmail(email)

	var user *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if errors.Is(err, common.ErrUserNotFound) {
		return nil, common.ErrWrongPassword
	}
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		log.WithField("user_id", user.ID).Warn("Неудачная попытка входа")
		return nil, common.ErrWrongPassword
	}
	if user.IsBanned {
		return nil, common.ErrUserBanned
	}
	return user, nil
}

// Profile возвращает собственный профиль пользователя.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	out := &Profile{}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out.User, err = tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		out.UnreadCount, err = tx.CountUnreadNotifications(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BootstrapAdmin гарантирует, что аккаунт email существует и является
// администратором с паролем из конфигурации.
func (s *Service) BootstrapAdmin(ctx context.Context, email, passwordHash string) (*ledger.User, error) {
	email = common.NormalizeEmail(email)
	if !common.ValidEmail(email) {
		return nil, common.ErrInvalidEmail
	}
	if err := CheckHash(passwordHash); err != nil {
		return nil, err
	}

	var user *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		existing, err := tx.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if err := tx.SetUserAdmin(ctx, existing.ID, true); err != nil {
				return err
			}
			if err := tx.SetUserPasswordHash(ctx, existing.ID, passwordHash); err != nil {
				return err
			}
			existing.IsAdmin = true
			existing.PasswordHash = passwordHash
			user = existing
			return nil
		case !errors.Is(err, common.ErrUserNotFound):
			return err
		}

		code, err := s.freeReferralCode(ctx, tx)
		if err != nil {
			return err
		}
		user = &ledger.User{
			Email:        email,
			PasswordHash: passwordHash,
			ReferralCode: code,
			IsAdmin:      true,
		}
		return tx.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   common.MaskEmail(user.Email),
	}).Info("Администратор назначен")
	return user, nil
}

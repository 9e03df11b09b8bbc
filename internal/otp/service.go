package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/pkg/config"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/mailer"
	"github.com/gearsupply/gearsupply-backend/pkg/metrics"
	"github.com/gearsupply/gearsupply-backend/pkg/security"
)

// invalidCodeMessage is the only failure detail verification exposes. Expired,
// unknown, exhausted, and mismatched codes are indistinguishable to callers.
const invalidCodeMessage = "invalid or expired code"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type resendLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	OTPResendKey(userID, purpose, window string) string
}

type resetTokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ResetTokenKey(token string) string
}

// Service drives one-time code issuance and verification.
type Service interface {
	Issue(ctx context.Context, user *models.User, purpose enums.OTPPurpose) error
	Resend(ctx context.Context, user *models.User, purpose enums.OTPPurpose) error
	Verify(ctx context.Context, userID uuid.UUID, purpose enums.OTPPurpose, code string, onVerified func(tx *gorm.DB) error) error
	IssueResetToken(ctx context.Context, userID uuid.UUID) (string, error)
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	limiter resendLimiter
	tokens  resetTokenStore
	mail    mailer.Mailer
	metrics *metrics.CommerceMetrics
	logg    *logger.Logger
	cfg     config.OTPConfig
	now     func() time.Time
}

// NewService builds the verification service with its dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	limiter resendLimiter,
	tokens resetTokenStore,
	mail mailer.Mailer,
	m *metrics.CommerceMetrics,
	logg *logger.Logger,
	cfg config.OTPConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("resend limiter required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("reset token store required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		limiter: limiter,
		tokens:  tokens,
		mail:    mail,
		metrics: m,
		logg:    logg,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// Issue mints a fresh code for (user, purpose), deactivating any outstanding
// one, and dispatches it by email. Reissue always invalidates the prior code.
func (s *service) Issue(ctx context.Context, user *models.User, purpose enums.OTPPurpose) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}
	if !purpose.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown otp purpose %q", purpose))
	}

	code, err := security.GenerateNumericCode(s.cfg.CodeLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp code")
	}

	now := s.now()
	record := &models.OTP{
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.TTL),
		Active:    true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeactivateAll(ctx, user.ID, purpose); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate previous codes")
		}
		if _, err := repo.Create(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp code")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncOTPIssued(string(purpose))

	msg := mailer.Message{
		To:      user.Email,
		Subject: subjectFor(purpose),
		Body:    fmt.Sprintf("Your code is %s. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes())),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		// The code is already live; a delivery hiccup must not roll it back.
		s.logg.Error(ctx, "otp email dispatch failed", err)
	}
	return nil
}

// Resend reissues the code subject to the server-side throttle: at most one
// send per interval and a bounded number per hour.
func (s *service) Resend(ctx context.Context, user *models.User, purpose enums.OTPPurpose) error {
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}

	intervalKey := s.limiter.OTPResendKey(user.ID.String(), string(purpose), "interval")
	count, err := s.limiter.IncrWithTTL(ctx, intervalKey, s.cfg.ResendInterval)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check resend interval")
	}
	if count > 1 {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "code was sent recently, wait before requesting another")
	}

	hourKey := s.limiter.OTPResendKey(user.ID.String(), string(purpose), "hour")
	count, err = s.limiter.IncrWithTTL(ctx, hourKey, time.Hour)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check resend hourly cap")
	}
	if count > int64(s.cfg.ResendHourlyLimit) {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested, try again later")
	}

	return s.Issue(ctx, user, purpose)
}

// Verify checks the submitted code against the active one for (user, purpose).
// All failure modes return the same public error so the endpoint cannot be
// used as an oracle for which codes exist. A non-nil onVerified runs inside
// the same transaction after the code is consumed, so the caller's follow-up
// state change commits or rolls back together with the burn.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, purpose enums.OTPPurpose, code string, onVerified func(tx *gorm.DB) error) error {
	if userID == uuid.Nil || code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, invalidCodeMessage)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindActiveForUpdate(ctx, userID, purpose)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active code")
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, invalidCodeMessage)
		}

		now := s.now()
		if now.After(record.ExpiresAt) {
			if err := repo.Deactivate(ctx, record.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire code")
			}
			return pkgerrors.New(pkgerrors.CodeValidation, invalidCodeMessage)
		}
		if record.Attempts >= s.cfg.MaxAttempts {
			if err := repo.Deactivate(ctx, record.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire exhausted code")
			}
			return pkgerrors.New(pkgerrors.CodeValidation, invalidCodeMessage)
		}

		if !security.ConstantTimeEquals(record.Code, code) {
			attempts, err := repo.IncrementAttempts(ctx, record.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failed attempt")
			}
			if attempts >= s.cfg.MaxAttempts {
				if err := repo.Deactivate(ctx, record.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire exhausted code")
				}
			}
			return pkgerrors.New(pkgerrors.CodeValidation, invalidCodeMessage)
		}

		if err := repo.MarkVerified(ctx, record.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark code verified")
		}
		if onVerified != nil {
			return onVerified(tx)
		}
		return nil
	})

	result := "success"
	if err != nil {
		result = "failure"
	}
	s.metrics.IncOTPVerified(string(purpose), result)
	return err
}

// IssueResetToken stores a single-use opaque token mapping to the user.
func (s *service) IssueResetToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := security.GenerateResetToken()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}
	key := s.tokens.ResetTokenKey(token)
	if err := s.tokens.Set(ctx, key, userID.String(), s.cfg.ResetTokenTTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset token")
	}
	return token, nil
}

// ConsumeResetToken resolves and burns the token. A token can be used once.
func (s *service) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "reset token required")
	}
	key := s.tokens.ResetTokenKey(token)
	value, err := s.tokens.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired reset token")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reset token")
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode reset token subject")
	}
	if err := s.tokens.Del(ctx, key); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "burn reset token")
	}
	return userID, nil
}

func subjectFor(purpose enums.OTPPurpose) string {
	switch purpose {
	case enums.OTPPurposeReset:
		return "Your GearSupply password reset code"
	default:
		return "Your GearSupply verification code"
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gearsupply/gearsupply-backend/internal/otp"
	"github.com/gearsupply/gearsupply-backend/internal/sequence"
	"github.com/gearsupply/gearsupply-backend/internal/users"
	pkgauth "github.com/gearsupply/gearsupply-backend/pkg/auth"
	"github.com/gearsupply/gearsupply-backend/pkg/auth/session"
	"github.com/gearsupply/gearsupply-backend/pkg/config"
	"github.com/gearsupply/gearsupply-backend/pkg/db"
	"github.com/gearsupply/gearsupply-backend/pkg/db/models"
	"github.com/gearsupply/gearsupply-backend/pkg/enums"
	pkgerrors "github.com/gearsupply/gearsupply-backend/pkg/errors"
	"github.com/gearsupply/gearsupply-backend/pkg/logger"
	"github.com/gearsupply/gearsupply-backend/pkg/security"
)

const (
	customerNumberConstraint = "idx_users_customer_number"
	emailConstraint          = "idx_users_email"
	minPasswordLength        = 8

	// Every credential failure reads the same so the login form cannot be
	// used to enumerate which emails have accounts.
	invalidCredentialsMessage = "invalid credentials"
)

// RegisterInput is a new customer signup.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	CompanyName string
	Phone       string
}

// Credentials is an email/password login attempt.
type Credentials struct {
	Email    string
	Password string
}

// TokenPair is a freshly minted access/refresh token set.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// Service implements signup, login, and the credential recovery flows.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, email, code string) (*TokenPair, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, creds Credentials) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	users     users.Repository
	codes     otp.Service
	allocator *sequence.Allocator
	sessions  sessionManager
	jwtCfg    config.JWTConfig
	pwCfg     config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the auth service.
func NewService(
	userRepo users.Repository,
	codes otp.Service,
	allocator *sequence.Allocator,
	sessions sessionManager,
	jwtCfg config.JWTConfig,
	pwCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if codes == nil {
		return nil, fmt.Errorf("otp service required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:     userRepo,
		codes:     codes,
		allocator: allocator,
		sessions:  sessions,
		jwtCfg:    jwtCfg,
		pwCfg:     pwCfg,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// Register creates an unverified account with a freshly allocated customer
// number and emails the verification code.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.allocator.RunNumbered(ctx, enums.DocumentTypeCustomer, customerNumberConstraint, func(tx *gorm.DB, number string) error {
		user := &models.User{
			Email:          email,
			PasswordHash:   hash,
			FirstName:      firstName,
			LastName:       lastName,
			CompanyName:    optional(input.CompanyName),
			Phone:          optional(input.Phone),
			CustomerNumber: number,
			IsActive:       true,
			IsVerified:     false,
		}
		saved, err := s.users.WithTx(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	// The account exists either way; a failed delivery is recoverable via
	// the resend endpoint.
	if err := s.codes.Issue(ctx, created, enums.OTPPurposeVerify); err != nil {
		s.logg.Error(ctx, "issue verification code", err)
	}

	ctx = s.logg.WithUserID(ctx, created.ID.String())
	s.logg.Info(ctx, "account registered")
	return created, nil
}

// VerifyEmail consumes the emailed code, activates the account, and opens a
// session so a fresh signup lands logged in. The account update runs inside
// the code's transaction, so a failed update leaves the code unburned.
func (s *service) VerifyEmail(ctx context.Context, email, code string) (*TokenPair, error) {
	user, err := s.findForCode(ctx, email)
	if err != nil {
		return nil, err
	}
	err = s.codes.Verify(ctx, user.ID, enums.OTPPurposeVerify, code, func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).MarkVerified(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark account verified")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.IsVerified = true
	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(ctx, "account verified")
	return pair, nil
}

// ResendVerification re-issues the verification code, rate limited per user.
// Unknown emails succeed silently.
func (s *service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.IsVerified {
		return nil
	}
	return s.codes.Resend(ctx, user, enums.OTPPurposeVerify)
}

// Login checks the credentials and mints an access/refresh pair. Unknown
// accounts, wrong passwords, and disabled or unverified accounts all fail
// with the same message.
func (s *service) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	user, err := s.lookup(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	ok, err := security.VerifyPassword(creds.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive || !user.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logg.Error(ctx, "record last login", err)
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(ctx, "login succeeded")
	return pair, nil
}

// Refresh rotates the session: the expired access token proves which session
// the refresh token belongs to, and a matching pair yields a new one.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		// Session is already rotated; drop it rather than hand out a token
		// for a dead account.
		if revokeErr := s.sessions.Revoke(ctx, newAccessID); revokeErr != nil {
			s.logg.Error(ctx, "revoke session for inactive account", revokeErr)
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:         user.ID,
		CustomerNumber: user.CustomerNumber,
		Role:           roleFor(user),
		JTI:            newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh, User: user}, nil
}

// Logout revokes the session tied to the presented access token's jti.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// ForgotPassword emails a reset code when the account exists. The response is
// identical either way.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return nil
	}
	if err := s.codes.Issue(ctx, user, enums.OTPPurposeReset); err != nil {
		s.logg.Error(ctx, "issue reset code", err)
	}
	return nil
}

// VerifyPasswordReset trades a valid reset code for a single-use reset token.
func (s *service) VerifyPasswordReset(ctx context.Context, email, code string) (string, error) {
	user, err := s.findForCode(ctx, email)
	if err != nil {
		return "", err
	}
	if err := s.codes.Verify(ctx, user.ID, enums.OTPPurposeReset, code, nil); err != nil {
		return "", err
	}
	token, err := s.codes.IssueResetToken(ctx, user.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue reset token")
	}
	return token, nil
}

// ResetPassword consumes the reset token and replaces the password.
func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	userID, err := s.codes.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	ctx = s.logg.WithUserID(ctx, userID.String())
	s.logg.Info(ctx, "password reset")
	return nil
}

func (s *service) mintPair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:         user.ID,
		CustomerNumber: user.CustomerNumber,
		Role:           roleFor(user),
		JTI:            accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// lookup normalizes the email and maps a missing row to nil, nil so flows
// that must not leak account existence can decide on their own.
func (s *service) lookup(ctx context.Context, email string) (*models.User, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return nil, nil
	}
	user, err := s.users.FindByEmail(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return user, nil
}

// findForCode resolves the account for a code-bearing flow. A missing account
// fails exactly like a wrong code.
func (s *service) findForCode(ctx context.Context, email string) (*models.User, error) {
	user, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired code")
	}
	return user, nil
}

func roleFor(user *models.User) enums.Role {
	if user.SystemRole != nil && enums.Role(*user.SystemRole) == enums.RoleAdmin {
		return enums.RoleAdmin
	}
	return enums.RoleCustomer
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

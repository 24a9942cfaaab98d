// Package services contains server-side business logic. This file implements
// AccountService: registration, password login with session tokens, email
// verification and password reset through single-use mailed tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// Messages returned by acknowledgement-only operations.
const (
	MsgLoggedOut      = "Logged out"
	MsgForgotPassword = "If that email is registered, you will receive a reset link."
	MsgPasswordReset  = "Password updated. You can log in now."
	MsgEmailVerified  = "Email verified. You can log in now."
	MsgPasswordChange = "Password updated."
)

// Mail subjects.
const (
	SubjectVerifyEmail   = "Verify your email"
	SubjectPasswordReset = "Password reset"
)

// Mailer queues an outbound message. Implementations must not block on
// delivery; notify.Notifier is the production one.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string)
}

// Acknowledgement is the result of operations that only report success.
type Acknowledgement struct {
	Message string
}

// RegisterInput carries a registration request. FullName is optional.
type RegisterInput struct {
	Email    string
	Password string
	FullName *string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
	// MaxAge is the session lifetime in seconds, for the cookie.
	MaxAge int
}

// AccountStatus summarises an account for operators.
type AccountStatus struct {
	User               *models.User
	ActiveResetTokens  int
	ActiveVerifyTokens int
}

// AccountService implements the account flows. Every operation runs in one
// transaction; mail is queued only after it commits.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.PasswordHasher
	codec       *auth.SessionCodec
	mailer      Mailer
	logger      logging.Logger
	now         func() time.Time

	accessTTL   time.Duration
	resetTTL    time.Duration
	verifyTTL   time.Duration
	frontendURL string

	// dummyHash is compared against on unknown emails so that login takes
	// the same time whether or not the account exists.
	dummyHash string
}

// NewAccountService wires the service from its collaborators and config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.PasswordHasher, codec *auth.SessionCodec,
	mailer Mailer, logger logging.Logger, cfg *config.Config) (*AccountService, error) {

	dummy, err := hasher.Hash("authkeeper-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		mailer:      mailer,
		logger:      logger.With("module", "accounts"),
		now:         time.Now,
		accessTTL:   cfg.AccessTokenValidityDuration,
		resetTTL:    cfg.ResetTokenValidityDuration,
		verifyTTL:   cfg.VerifyTokenValidityDuration,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		dummyHash:   dummy,
	}, nil
}

// WithClock replaces the time source used for login expiry reporting.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

// SessionTTL is the lifetime of tokens issued by Login.
func (s *AccountService) SessionTTL() time.Duration {
	return s.accessTTL
}

// Register creates an unverified, active account and mails a verification
// link. An email that is already registered yields common.ErrDuplicateEmail.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var token string
	user, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		users := s.repomanager.Users(tx)

		_, err := users.GetByEmail(ctx, in.Email)
		if err == nil {
			return nil, common.ErrDuplicateEmail
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error looking up user: %w", err)
		}

		u, err := users.Create(ctx, &models.User{
			Email:          in.Email,
			HashedPassword: hash,
			FullName:       in.FullName,
			IsVerified:     false,
			IsActive:       true,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return nil, common.ErrDuplicateEmail
			}
			return nil, fmt.Errorf("error creating user: %w", err)
		}

		token, err = s.repomanager.Tokens(tx).Create(ctx, u.ID, models.TokenKindEmailVerify, s.verifyTTL)
		if err != nil {
			return nil, fmt.Errorf("error creating verification token: %w", err)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	s.mailer.Send(ctx, user.Email, SubjectVerifyEmail, fmt.Sprintf("Link: %s/verify-email?token=%s", s.frontendURL, token))
	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	return user, nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords both yield common.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repomanager.Users(tx).GetByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrAccountDisabled
	}

	token, err := s.codec.Issue(user.ID, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing session token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: s.now().Add(s.accessTTL),
		MaxAge:    int(s.accessTTL / time.Second),
	}, nil
}

// Logout has no server-side state to drop; the caller clears the cookie.
func (s *AccountService) Logout(ctx context.Context) Acknowledgement {
	return Acknowledgement{Message: MsgLoggedOut}
}

// Me resolves a session token to its active user.
func (s *AccountService) Me(ctx context.Context, token string) (*models.User, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.authenticate(ctx, tx, token)
	})
}

// ForgotPassword mails a reset link when email belongs to an account. The
// acknowledgement is the same either way.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) (Acknowledgement, error) {
	var token string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return fmt.Errorf("error looking up user: %w", err)
		}

		token, err = s.repomanager.Tokens(tx).Create(ctx, user.ID, models.TokenKindPasswordReset, s.resetTTL)
		if err != nil {
			return fmt.Errorf("error creating reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return Acknowledgement{}, err
	}

	if token != "" {
		s.mailer.Send(ctx, email, SubjectPasswordReset, fmt.Sprintf("Reset link: %s/reset-password?token=%s", s.frontendURL, token))
	}

	return Acknowledgement{Message: MsgForgotPassword}, nil
}

// ResetPassword redeems a reset token and replaces the password.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (Acknowledgement, error) {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return Acknowledgement{}, fmt.Errorf("hash password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userID, err := s.redeem(ctx, tx, token, models.TokenKindPasswordReset)
		if err != nil {
			return err
		}
		return s.updateRedeemed(s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash))
	})
	if err != nil {
		return Acknowledgement{}, err
	}

	s.logger.Info(ctx, "password reset")
	return Acknowledgement{Message: MsgPasswordReset}, nil
}

// VerifyEmail redeems a verification token and marks its owner verified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (Acknowledgement, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userID, err := s.redeem(ctx, tx, token, models.TokenKindEmailVerify)
		if err != nil {
			return err
		}
		return s.updateRedeemed(s.repomanager.Users(tx).MarkVerified(ctx, userID))
	})
	if err != nil {
		return Acknowledgement{}, err
	}

	s.logger.Info(ctx, "email verified")
	return Acknowledgement{Message: MsgEmailVerified}, nil
}

// ChangePassword replaces the password of the session's user after checking
// the current one.
func (s *AccountService) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (Acknowledgement, error) {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.authenticate(ctx, tx, token)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(currentPassword, user.HashedPassword) {
			return common.ErrInvalidCredentials
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		return nil
	})
	if err != nil {
		return Acknowledgement{}, err
	}

	return Acknowledgement{Message: MsgPasswordChange}, nil
}

// SetActive enables or disables the account registered under email.
// Unknown emails yield common.ErrorNotFound.
func (s *AccountService) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	user, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		users := s.repomanager.Users(tx)
		u, err := users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if err := users.SetActive(ctx, u.ID, active); err != nil {
			return nil, err
		}
		return users.GetByID(ctx, u.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account activity changed", "user_id", user.ID, "active", active)
	return user, nil
}

// Status reports the account under email with its pending token counts.
func (s *AccountService) Status(ctx context.Context, email string) (*AccountStatus, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*AccountStatus, error) {
		u, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}

		tokens := s.repomanager.Tokens(tx)
		resets, err := tokens.CountActive(ctx, u.ID, models.TokenKindPasswordReset)
		if err != nil {
			return nil, err
		}
		verifies, err := tokens.CountActive(ctx, u.ID, models.TokenKindEmailVerify)
		if err != nil {
			return nil, err
		}

		return &AccountStatus{User: u, ActiveResetTokens: resets, ActiveVerifyTokens: verifies}, nil
	})
}

// --- helpers below ---

func (s *AccountService) authenticate(ctx context.Context, tx dbx.DBTX, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, ok := s.codec.Decode(token)
	if !ok || claims.Kind != auth.KindAccess {
		return nil, common.ErrUnauthenticated
	}
	userID, ok := claims.SubjectID()
	if !ok {
		return nil, common.ErrUnauthenticated
	}

	user, err := s.repomanager.Users(tx).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrForbidden
	}
	return user, nil
}

func (s *AccountService) redeem(ctx context.Context, tx dbx.DBTX, token string, kind models.TokenKind) (int64, error) {
	if token == "" {
		return 0, common.ErrInvalidOrExpiredToken
	}
	userID, err := s.repomanager.Tokens(tx).Redeem(ctx, token, kind)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.ErrInvalidOrExpiredToken
		}
		return 0, fmt.Errorf("error redeeming token: %w", err)
	}
	return userID, nil
}

// updateRedeemed maps a missing owner of a just-redeemed token to the same
// error as a bad token.
func (s *AccountService) updateRedeemed(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrInvalidOrExpiredToken
	}
	return fmt.Errorf("error updating user: %w", err)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/auth"
	"github.com/vibast-solutions/ms-go-journal/app/dto"
	"github.com/vibast-solutions/ms-go-journal/app/entity"
	"github.com/vibast-solutions/ms-go-journal/app/metrics"
	"github.com/vibast-solutions/ms-go-journal/app/repository"
	"github.com/vibast-solutions/ms-go-journal/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const resetEmailTimeout = 30 * time.Second

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByResetToken(ctx context.Context, digest string) (*entity.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt, now time.Time) error
	CompleteReset(ctx context.Context, id uuid.UUID, digest, passwordHash string, now time.Time) (bool, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

type refreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	Rotate(ctx context.Context, userID uuid.UUID, oldHash string, now time.Time, next *entity.RefreshToken) (bool, error)
	DeleteByHash(ctx context.Context, tokenHash string, userID uuid.UUID) (int64, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type resetMailer interface {
	SendPasswordReset(ctx context.Context, to, token string, ttl time.Duration) error
}

type UserAuthService interface {
	Signup(ctx context.Context, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*dto.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
	DeleteAccount(ctx context.Context, email string) error
	PruneExpiredRefreshTokens(ctx context.Context) (int64, error)
}

type AsyncRunner func(task func())

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	userRepo         userRepository
	refreshTokenRepo refreshTokenRepository
	mailer           resetMailer
	cfg              *config.Config
	hasher           *auth.BcryptHasher
	tokens           *auth.TokenManager
	resets           *auth.ResetTokenManager
	asyncRunner      AsyncRunner
	now              func() time.Time
}

func NewUserAuthService(
	userRepo userRepository,
	refreshTokenRepo refreshTokenRepository,
	mailer resetMailer,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		mailer:           mailer,
		cfg:              cfg,
		asyncRunner: func(task func()) {
			go task()
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	svc.hasher = auth.NewBcryptHasher(cfg.Password.BcryptCost)
	svc.tokens = auth.NewTokenManager(cfg.JWT.Secret, auth.WithTokenClock(svc.now))
	svc.resets = auth.NewResetTokenManager(cfg.Tokens.ResetTTL)
	return svc
}

func WithAsyncRunner(runner AsyncRunner) UserAuthServiceOption {
	return func(s *userAuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func WithClock(now func() time.Time) UserAuthServiceOption {
	return func(s *userAuthService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *userAuthService) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	if err := s.cfg.Password.Policy.Validate(password); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("signup", "weak_password").Inc()
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		metrics.AuthEventsTotal.WithLabelValues("signup", "user_exists").Inc()
		return nil, ErrUserExists
	}

	passwordHash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			metrics.AuthEventsTotal.WithLabelValues("signup", "user_exists").Inc()
			return nil, ErrUserExists
		}
		return nil, err
	}

	metrics.AuthEventsTotal.WithLabelValues("signup", "success").Inc()
	return user, nil
}

func (s *userAuthService) Login(ctx context.Context, email, password string) (*dto.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.VerifyDummy(password)
		metrics.AuthEventsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.AuthEventsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	pair, refresh, err := s.issueTokenPair(user.ID)
	if err != nil {
		return nil, err
	}
	if err = s.refreshTokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}

	metrics.AuthEventsTotal.WithLabelValues("login", "success").Inc()
	return pair, nil
}

func (s *userAuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, auth.KindRefresh)
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("refresh", "invalid_token").Inc()
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	pair, next, err := s.issueTokenPair(userID)
	if err != nil {
		return nil, err
	}

	rotated, err := s.refreshTokenRepo.Rotate(ctx, userID, auth.Digest(refreshToken), s.now(), next)
	if err != nil {
		return nil, err
	}
	if !rotated {
		metrics.AuthEventsTotal.WithLabelValues("refresh", "revoked").Inc()
		return nil, ErrInvalidToken
	}

	metrics.AuthEventsTotal.WithLabelValues("refresh", "success").Inc()
	return pair, nil
}

// Logout ends the refresh chain of the given token, or every chain of the
// user when refreshToken is empty. Access tokens stay valid until they expire.
func (s *userAuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	var err error
	if refreshToken != "" {
		_, err = s.refreshTokenRepo.DeleteByHash(ctx, auth.Digest(refreshToken), userID)
	} else {
		_, err = s.refreshTokenRepo.DeleteByUserID(ctx, userID)
	}
	if err != nil {
		return err
	}

	metrics.AuthEventsTotal.WithLabelValues("logout", "success").Inc()
	return nil
}

// ForgotPassword returns nil for unknown emails so callers cannot probe for
// accounts. The email itself is sent in the background.
func (s *userAuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		metrics.AuthEventsTotal.WithLabelValues("forgot_password", "unknown_email").Inc()
		return nil
	}

	now := s.now()
	grant, err := s.resets.Request(now)
	if err != nil {
		return err
	}
	if err = s.userRepo.SetResetToken(ctx, user.ID, grant.Digest, grant.ExpiresAt, now); err != nil {
		return err
	}

	to := user.Email
	token := grant.Token
	ttl := s.resets.TTL()
	s.asyncRunner(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), resetEmailTimeout)
		defer cancel()

		if sendErr := s.mailer.SendPasswordReset(sendCtx, to, token, ttl); sendErr != nil {
			metrics.ResetEmailsTotal.WithLabelValues("failed").Inc()
			logrus.WithError(sendErr).WithField("user_id", user.ID.String()).Error("Failed to send password reset email")
			return
		}
		metrics.ResetEmailsTotal.WithLabelValues("sent").Inc()
	})

	metrics.AuthEventsTotal.WithLabelValues("forgot_password", "success").Inc()
	return nil
}

func (s *userAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.cfg.Password.Policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	digest := auth.Digest(token)
	user, err := s.userRepo.FindByResetToken(ctx, digest)
	if err != nil {
		return err
	}
	if user == nil {
		metrics.AuthEventsTotal.WithLabelValues("reset_password", "invalid_token").Inc()
		return ErrInvalidResetToken
	}

	if err = s.resets.Consume(user, token, s.now()); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("reset_password", "invalid_token").Inc()
		return ErrInvalidResetToken
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	applied, err := s.userRepo.CompleteReset(ctx, user.ID, digest, passwordHash, s.now())
	if err != nil {
		return err
	}
	if !applied {
		metrics.AuthEventsTotal.WithLabelValues("reset_password", "invalid_token").Inc()
		return ErrInvalidResetToken
	}

	metrics.AuthEventsTotal.WithLabelValues("reset_password", "success").Inc()
	return nil
}

func (s *userAuthService) ValidateAccessToken(tokenString string) (*auth.Claims, error) {
	return s.tokens.Validate(tokenString, auth.KindAccess)
}

func (s *userAuthService) DeleteAccount(ctx context.Context, email string) error {
	count, err := s.userRepo.DeleteByEmail(ctx, email)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *userAuthService) PruneExpiredRefreshTokens(ctx context.Context) (int64, error) {
	count, err := s.refreshTokenRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.RefreshTokensPrunedTotal.Add(float64(count))
	return count, nil
}

func (s *userAuthService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most 72 bytes long", ErrWeakPassword)
	}
	return hash, err
}

func (s *userAuthService) issueTokenPair(userID uuid.UUID) (*dto.TokenPair, *entity.RefreshToken, error) {
	accessToken, _, err := s.tokens.Issue(userID, auth.KindAccess, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, nil, err
	}

	refreshToken, refreshExpiresAt, err := s.tokens.Issue(userID, auth.KindRefresh, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, nil, err
	}

	record := &entity.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: auth.Digest(refreshToken),
		ExpiresAt: refreshExpiresAt,
		CreatedAt: s.now(),
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWT.AccessTokenTTL.Seconds()),
	}, record, nil
}

// Package auth issues sessions for anonymous and phone/OTP sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"farmer_assist/pkg/core/store"
	"farmer_assist/pkg/models"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

var (
	ErrInvalidPhone        = errors.New("enter a valid phone number with country code")
	ErrNameRequired        = errors.New("please enter your name")
	ErrUnknownVerification = errors.New("verification not found, request a new code")
	ErrInvalidOTP          = errors.New("invalid verification code")
	ErrOTPExpired          = errors.New("verification code expired")
	ErrTooManyAttempts     = errors.New("too many attempts, request a new code")
	ErrUnauthenticated     = errors.New("authentication required")
)

const (
	otpDigits   = 6
	tokenLength = 32

	// Expired verifications and sessions are dropped at most this often,
	// on the next insert.
	sweepInterval = time.Minute
)

// UserRepo is satisfied by store.UserRepo and store.MemoryUserRepo.
type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

// OTPSender delivers a verification code to a phone.
type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log instead of sending an SMS.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) SendOTP(_ context.Context, phone, code string) error {
	if s.Logger != nil {
		s.Logger.Info("verification code", zap.String("phone", phone), zap.String("code", code))
	}
	return nil
}

type Config struct {
	OTPTTL      time.Duration
	SessionTTL  time.Duration
	MaxAttempts int
}

// Session is what a client holds after signing in.
type Session struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type session struct {
	userID    string
	expiresAt time.Time
}

type verification struct {
	phone     string
	code      string
	expiresAt time.Time
	attempts  int
}

type Service struct {
	users  UserRepo
	sender OTPSender
	cfg    Config
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	sessions  map[string]session
	pending   map[string]*verification
	byPhone   map[string]string // phone -> pending verification id
	nextSweep time.Time
}

func NewService(users UserRepo, sender OTPSender, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if sender == nil {
		sender = LogSender{Logger: logger}
	}
	return &Service{
		users:    users,
		sender:   sender,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.Named("auth"),
		sessions: make(map[string]session),
		pending:  make(map[string]*verification),
		byPhone:  make(map[string]string),
	}
}

// SignInAnonymously creates a fresh anonymous account.
func (s *Service) SignInAnonymously(ctx context.Context) (*Session, error) {
	now := s.now().UTC()
	u := &models.User{ID: uuid.New().String(), Anonymous: true, CreatedAt: now, UpdatedAt: now}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// NormalizePhone strips formatting and returns "+<digits>".
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

// StartPhoneSignIn sends a one-time code and returns the verification id the
// client must echo back.
func (s *Service) StartPhoneSignIn(ctx context.Context, phone string) (string, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	code, err := gonanoid.Generate("0123456789", otpDigits)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification id: %w", err)
	}

	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		return "", fmt.Errorf("failed to send code: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	s.sweepLocked(now)
	// A new code replaces the previous one for the same phone.
	if old, ok := s.byPhone[phone]; ok {
		delete(s.pending, old)
	}
	s.pending[id] = &verification{phone: phone, code: code, expiresAt: now.Add(s.cfg.OTPTTL)}
	s.byPhone[phone] = id
	s.mu.Unlock()
	return id, nil
}

// VerifyPhoneSignIn checks the code and signs the user in, creating the
// account on first use. The display name is updated on every sign-in.
func (s *Service) VerifyPhoneSignIn(ctx context.Context, verificationID, code, displayName string) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrNameRequired
	}

	phone, err := s.checkCode(verificationID, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u, err := s.users.GetByPhone(ctx, phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		u = &models.User{ID: uuid.New().String(), DisplayName: displayName, Phone: phone, CreatedAt: now, UpdatedAt: now}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		u.DisplayName = displayName
		u.Anonymous = false
		u.UpdatedAt = now
		if err := s.users.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return s.issue(u)
}

func (s *Service) checkCode(id, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.pending[id]
	if !ok {
		return "", ErrUnknownVerification
	}
	if s.now().After(v.expiresAt) {
		s.dropPendingLocked(id, v)
		return "", ErrOTPExpired
	}
	if v.attempts >= s.cfg.MaxAttempts {
		s.dropPendingLocked(id, v)
		return "", ErrTooManyAttempts
	}
	v.attempts++
	if code != v.code {
		return "", ErrInvalidOTP
	}
	s.dropPendingLocked(id, v)
	return v.phone, nil
}

func (s *Service) dropPendingLocked(id string, v *verification) {
	delete(s.pending, id)
	if s.byPhone[v.phone] == id {
		delete(s.byPhone, v.phone)
	}
}

// sweepLocked removes expired verifications and sessions. It runs at most
// once per sweepInterval so inserts stay cheap.
func (s *Service) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(sweepInterval)
	for id, v := range s.pending {
		if now.After(v.expiresAt) {
			s.dropPendingLocked(id, v)
		}
	}
	for token, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && s.now().After(sess.expiresAt) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrUnauthenticated
	}

	u, err := s.users.Get(ctx, sess.userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return u, err
}

// SignOut invalidates token. Unknown tokens are ignored.
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func (s *Service) issue(u *models.User) (*Session, error) {
	token, err := gonanoid.New(tokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	now := s.now()
	expires := now.Add(s.cfg.SessionTTL)

	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[token] = session{userID: u.ID, expiresAt: expires}
	s.mu.Unlock()

	s.logger.Debug("session issued", zap.String("user", u.ID), zap.Bool("anonymous", u.Anonymous))
	return &Session{Token: token, User: u, ExpiresAt: expires}, nil
}

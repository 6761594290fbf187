package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"github.com/shoaibhasann/zahra/pkg/mailer"
	"github.com/shoaibhasann/zahra/pkg/sms"
	"github.com/shoaibhasann/zahra/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidIdentity = errors.New("a valid email or phone number is required")
	ErrOTPCooldown     = errors.New("please wait before requesting another code")
	ErrOTPDailyLimit   = errors.New("daily code request limit reached")
	ErrOTPInvalid      = errors.New("invalid or expired code")
	ErrUserNotFound    = errors.New("user not found")
)

// OTPCounter tracks per-identity daily request counts.
type OTPCounter interface {
	Incr(ctx context.Context, identity string, ttl time.Duration) (int64, error)
}

// RequestOTPInput identifies the sign-in target by email or phone.
type RequestOTPInput struct {
	Email string
	Phone string
}

// VerifyOTPInput carries the code entered by the user.
type VerifyOTPInput struct {
	Email string
	Phone string
	Code  string
	Name  string
}

// AuthResult is returned on successful verification.
type AuthResult struct {
	User   *model.User     `json:"user"`
	Tokens *util.TokenPair `json:"tokens"`
}

// AuthService implements passwordless sign-in: a one-time code is generated,
// hashed, stored on the user row, and delivered out of band. Verifying the
// code issues a JWT pair. Accounts are created lazily on first verification.
type AuthService interface {
	RequestOTP(ctx context.Context, input RequestOTPInput) error
	VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthResult, error)
	Refresh(refreshToken string) (*util.TokenPair, error)
	GetUser(userID uint) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	mail     mailer.Mailer
	sms      sms.Sender
	counter  OTPCounter
	jwtCfg   *config.JWTConfig
	otpCfg   *config.OTPConfig
}

func NewAuthService(
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	smsSender sms.Sender,
	counter OTPCounter,
	jwtCfg *config.JWTConfig,
	otpCfg *config.OTPConfig,
) AuthService {
	return &authService{
		userRepo: userRepo,
		mail:     mail,
		sms:      smsSender,
		counter:  counter,
		jwtCfg:   jwtCfg,
		otpCfg:   otpCfg,
	}
}

func (s *authService) RequestOTP(ctx context.Context, input RequestOTPInput) error {
	email, phone, err := normalizeIdentity(input.Email, input.Phone)
	if err != nil {
		return err
	}
	identity := identityKey(email, phone)

	user, err := s.findByIdentity(email, phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	if user != nil && user.LastOTPSentAt != nil {
		if now.Sub(*user.LastOTPSentAt) < s.otpCfg.ResendCooldown {
			return ErrOTPCooldown
		}
	}

	count, err := s.counter.Incr(ctx, identity, 24*time.Hour)
	if err != nil {
		// The counter is advisory. Delivery still proceeds when Redis is
		// unreachable.
		logger.Warn("OTP counter unavailable", map[string]interface{}{
			"identity": identity,
			"error":    err.Error(),
		})
	} else if count > int64(s.otpCfg.DailyLimit) {
		return ErrOTPDailyLimit
	}

	code, err := util.GenerateOTP()
	if err != nil {
		return err
	}
	hash, err := util.HashOTP(code)
	if err != nil {
		return err
	}

	if user == nil {
		user = &model.User{Email: email, Phone: phone, Role: model.RoleUser}
		if err := s.userRepo.Create(user); err != nil {
			return err
		}
	}

	expiresAt := now.Add(s.otpCfg.CodeExpiry)
	user.OTPHash = hash
	user.OTPExpiresAt = &expiresAt
	user.LastOTPSentAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	if err := s.deliver(ctx, email, phone, code); err != nil {
		logger.Error("Failed to deliver OTP", err, map[string]interface{}{
			"identity": identity,
		})
		return err
	}

	logger.Info("OTP sent", map[string]interface{}{
		"user_id":  user.ID,
		"identity": identity,
	})
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, input VerifyOTPInput) (*AuthResult, error) {
	email, phone, err := normalizeIdentity(input.Email, input.Phone)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrOTPInvalid
	}

	user, err := s.findByIdentity(email, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, err
	}

	if user.OTPHash == "" || user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return nil, ErrOTPInvalid
	}
	if !util.VerifyOTP(code, user.OTPHash) {
		return nil, ErrOTPInvalid
	}

	// Single use: the stored hash is cleared on success.
	user.OTPHash = ""
	user.OTPExpiresAt = nil
	if input.Name != "" && user.Name == "" {
		user.Name = input.Name
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	tokens, err := util.GenerateTokenPair(
		user.ID,
		derefOr(user.Email, ""),
		string(user.Role),
		s.jwtCfg.Secret,
		s.jwtCfg.AccessTokenExpiry,
		s.jwtCfg.RefreshTokenExpiry,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	logger.Info("User authenticated", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func (s *authService) Refresh(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtCfg.Secret)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return util.GenerateTokenPair(
		user.ID,
		derefOr(user.Email, ""),
		string(user.Role),
		s.jwtCfg.Secret,
		s.jwtCfg.AccessTokenExpiry,
		s.jwtCfg.RefreshTokenExpiry,
	)
}

func (s *authService) GetUser(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) findByIdentity(email, phone *string) (*model.User, error) {
	if email != nil {
		return s.userRepo.FindByEmail(*email)
	}
	return s.userRepo.FindByPhone(*phone)
}

func (s *authService) deliver(ctx context.Context, email, phone *string, code string) error {
	if email != nil {
		subject := "Your Zahra sign-in code"
		body := fmt.Sprintf("Your one-time sign-in code is %s. It expires in %d minutes.", code, int(s.otpCfg.CodeExpiry.Minutes()))
		return s.mail.Send(ctx, *email, subject, body)
	}
	message := fmt.Sprintf("Your Zahra sign-in code is %s. Valid for %d minutes.", code, int(s.otpCfg.CodeExpiry.Minutes()))
	return s.sms.Send(ctx, *phone, message)
}

// normalizeIdentity validates that exactly one of email or phone is present
// and canonicalizes it.
func normalizeIdentity(email, phone string) (*string, *string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	switch {
	case email != "" && phone != "":
		return nil, nil, ErrInvalidIdentity
	case email != "":
		if !strings.Contains(email, "@") {
			return nil, nil, ErrInvalidIdentity
		}
		return &email, nil, nil
	case phone != "":
		normalized, err := util.NormalizePhone(phone)
		if err != nil {
			return nil, nil, ErrInvalidIdentity
		}
		return nil, &normalized, nil
	default:
		return nil, nil, ErrInvalidIdentity
	}
}

func identityKey(email, phone *string) string {
	if email != nil {
		return *email
	}
	return *phone
}

func derefOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}

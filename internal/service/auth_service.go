package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/daytrack/internal/db"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials 在用户名或密码不匹配时返回
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound 在账号不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrCodeInvalid 在验证码不存在、已过期或已消费时返回
	ErrCodeInvalid = errors.New("one-time code invalid or expired")
)

// 验证码有效期
const oneTimeCodeTTL = 10 * time.Minute

// AuthService 负责登录校验、一次性验证码签发与密码重置
type AuthService struct {
	db *gorm.DB
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// Authenticate 校验用户名密码，成功返回用户
func (s *AuthService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// IssueOneTimeCode 为账号签发一次性验证码，十分钟内有效
func (s *AuthService) IssueOneTimeCode(username string) (*db.OneTimeCode, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	code, err := generateNumericCode(6)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	record := db.OneTimeCode{
		UserID:    user.ID,
		Code:      code,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(oneTimeCodeTTL),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("create one-time code: %w", err)
	}

	return &record, nil
}

// ResetPassword 校验验证码并重置密码，验证码单次有效
func (s *AuthService) ResetPassword(username, code, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("new password is required")
	}

	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	var record db.OneTimeCode
	err := s.db.Where("user_id = ? AND code = ? AND used_at IS NULL", user.ID, strings.TrimSpace(code)).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeInvalid
		}
		return fmt.Errorf("find one-time code: %w", err)
	}

	if time.Now().After(record.ExpiresAt) {
		return ErrCodeInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&record).Update("used_at", &now).Error; err != nil {
			return fmt.Errorf("consume one-time code: %w", err)
		}
		if err := tx.Model(&user).Update("password", string(hashed)).Error; err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return nil
	})
}

func generateNumericCode(digits int) (string, error) {
	var builder strings.Builder
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		builder.WriteString(n.String())
	}
	return builder.String(), nil
}

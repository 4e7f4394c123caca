package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/config"
)

// OTPStore issues and checks one-time login codes sent to a phone number
type OTPStore interface {
	// Issue creates a code for phone and hands it to the delivery channel
	Issue(ctx context.Context, phone string) error
	// Verify reports whether code is the live code for phone, consuming it on success
	Verify(ctx context.Context, phone, code string) (bool, error)
}

// NewOTPStore returns the store selected by OTP_MODE
func NewOTPStore(cfg *config.Config) OTPStore {
	if cfg.OTPMode == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return NewRedisOTPStore(client, cfg.OTPTTL, LogOTPSender{})
	}
	return StubOTPStore{}
}

// OTPSender delivers an issued code to the customer's phone
type OTPSender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogOTPSender writes codes to the application log. It stands in for an SMS
// gateway in development and staging.
type LogOTPSender struct{}

// Send implements OTPSender
func (LogOTPSender) Send(ctx context.Context, phone, code string) error {
	zlog.Info().Str("phone", maskPhone(phone)).Str("code", code).Msg("otp code")
	return nil
}

// StubOTPStore accepts any non-empty code. Used until an SMS provider is connected.
type StubOTPStore struct{}

// Issue implements OTPStore
func (StubOTPStore) Issue(ctx context.Context, phone string) error {
	zlog.Info().Str("phone", maskPhone(phone)).Msg("otp stub: code accepted without delivery")
	return nil
}

// Verify implements OTPStore
func (StubOTPStore) Verify(ctx context.Context, phone, code string) (bool, error) {
	return code != "", nil
}

// RedisOTPStore keeps codes in Redis with a TTL and a bounded number of attempts
type RedisOTPStore struct {
	client      *redis.Client
	sender      OTPSender
	ttl         time.Duration
	maxAttempts int64
}

// NewRedisOTPStore creates a Redis-backed OTP store that delivers codes through sender
func NewRedisOTPStore(client *redis.Client, ttl time.Duration, sender OTPSender) *RedisOTPStore {
	return &RedisOTPStore{client: client, sender: sender, ttl: ttl, maxAttempts: 5}
}

func otpKey(phone string) string         { return "otp:code:" + phone }
func otpAttemptsKey(phone string) string { return "otp:attempts:" + phone }

// Issue implements OTPStore
func (s *RedisOTPStore) Issue(ctx context.Context, phone string) error {
	code, err := randomDigits(6)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpKey(phone), code, s.ttl)
	pipe.Del(ctx, otpAttemptsKey(phone))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}
	return nil
}

// Verify implements OTPStore
func (s *RedisOTPStore) Verify(ctx context.Context, phone, code string) (bool, error) {
	attempts, err := s.client.Incr(ctx, otpAttemptsKey(phone)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count otp attempts: %w", err)
	}
	if err := s.client.Expire(ctx, otpAttemptsKey(phone), s.ttl).Err(); err != nil {
		zlog.Warn().Err(err).Str("phone", maskPhone(phone)).Msg("failed to set otp attempts expiry")
	}
	if attempts > s.maxAttempts {
		return false, nil
	}

	stored, err := s.client.Get(ctx, otpKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	if err := s.client.Del(ctx, otpKey(phone), otpAttemptsKey(phone)).Err(); err != nil {
		zlog.Warn().Err(err).Str("phone", maskPhone(phone)).Msg("failed to consume otp")
	}
	return true, nil
}

func randomDigits(n int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

// maskPhone keeps the last four digits of a phone number for logging
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "******" + phone[len(phone)-4:]
}

var otpStoreInstance OTPStore

// InitOTPStore creates the process-wide OTP store from cfg
func InitOTPStore(cfg *config.Config) OTPStore {
	otpStoreInstance = NewOTPStore(cfg)
	return otpStoreInstance
}

// GetOTPStore returns the store set by InitOTPStore or SetOTPStore
func GetOTPStore() OTPStore {
	return otpStoreInstance
}

// SetOTPStore sets the OTP store instance (primarily for testing)
func SetOTPStore(store OTPStore) {
	otpStoreInstance = store
}

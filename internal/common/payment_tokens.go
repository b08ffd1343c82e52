package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servercv/dashboard/internal/constants"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PaymentConfirmation is a verified "payment confirmed" notice for one user.
type PaymentConfirmation struct {
	UserID    string
	OrderID   string
	TokenID   string
	ExpiresAt time.Time
}

type paymentClaims struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	jwt.RegisteredClaims
}

// PaymentTokenService signs, verifies and consumes single-use payment confirmation
// tokens. The checkout callback signs one token per paid order.
type PaymentTokenService struct {
	secretKey []byte
	redis     *redis.Client
}

func NewPaymentTokenService(secretKey []byte, redis *redis.Client) *PaymentTokenService {
	return &PaymentTokenService{
		secretKey: secretKey,
		redis:     redis,
	}
}

// Sign issues a confirmation token for userID's order
func (s *PaymentTokenService) Sign(userID, orderID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := paymentClaims{
		UserID:  userID,
		OrderID: orderID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and claims of a confirmation token
// without consuming it.
func (s *PaymentTokenService) Verify(tokenString string) (*PaymentConfirmation, error) {
	var claims paymentClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, InvalidInput(constants.ErrCodeInvalidPaymentToken, "invalid payment confirmation: "+err.Error())
	}
	if claims.UserID == "" || claims.OrderID == "" || claims.ID == "" {
		return nil, InvalidInput(constants.ErrCodeInvalidPaymentToken, "payment confirmation is missing claims")
	}

	return &PaymentConfirmation{
		UserID:    claims.UserID,
		OrderID:   claims.OrderID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Consume burns the token id. It succeeds once per token; the used marker
// lives as long as the token would have.
func (s *PaymentTokenService) Consume(ctx context.Context, conf *PaymentConfirmation) error {
	ttl := time.Until(conf.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	fresh, err := s.redis.SetNX(ctx, string(constants.CachePrefixUsedPayment)+conf.TokenID, "1", ttl).Result()
	if err != nil {
		return Unavailable(constants.ErrCodeCacheUnavailable, "mark payment token used", err)
	}
	if !fresh {
		return InvalidInput(constants.ErrCodeInvalidPaymentToken, constants.MsgPaymentTokenUsed)
	}
	return nil
}

// IsTokenUsed reports whether the token id has been redeemed already
func (s *PaymentTokenService) IsTokenUsed(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.redis.Get(ctx, string(constants.CachePrefixUsedPayment)+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token usage: %w", err)
	}
	return true, nil
}

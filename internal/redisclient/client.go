package redisclient

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client is the expiring key-value store backing email verification codes.
// It is passed to the auth service as an explicit dependency.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func verificationKey(email string) string {
	return fmt.Sprintf("verify_email:%s", email)
}

// SetVerificationCode stores a code for an email with a TTL. Re-registration
// overwrites any previous code.
func (c *Client) SetVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, verificationKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// GetVerificationCode retrieves the stored code for an email. Returns
// models.ErrVerificationCodeNotFound once the TTL has elapsed.
func (c *Client) GetVerificationCode(ctx context.Context, email string) (string, error) {
	code, err := c.rdb.Get(ctx, verificationKey(email)).Result()
	if err == redis.Nil {
		return "", models.ErrVerificationCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read verification code: %w", err)
	}
	return code, nil
}

// DeleteVerificationCode removes the code after a successful verification
func (c *Client) DeleteVerificationCode(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, verificationKey(email)).Err()
}

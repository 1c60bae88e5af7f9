package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
	issuer               = "project-tracker"
)

var ErrInvalidSession = errors.New("invalid or expired session")

type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store interface {
	Create(ctx context.Context, userID uuid.UUID) (*Token, error)
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	Refresh(ctx context.Context, token string) (*Token, error)
	Destroy(ctx context.Context, token string) error
	DestroyAllForUser(ctx context.Context, userID uuid.UUID) error
}

type claims struct {
	jwt.RegisteredClaims
}

// RedisStore issues HS256 session tokens whose session id must be present in
// Redis. Deleting the key revokes the token before it expires.
type RedisStore struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, secret string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{
		client: client,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, userID uuid.UUID) (*Token, error) {
	sid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        sid.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	userKey := userSessionKeyPrefix + userID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sid.String(), userID.String(), s.ttl)
	pipe.SAdd(ctx, userKey, sid.String())
	pipe.Expire(ctx, userKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (s *RedisStore) parse(token string) (*claims, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if parsed.ID == "" || parsed.Subject == "" {
		return nil, ErrInvalidSession
	}
	return parsed, nil
}

// Resolve returns the user a live session token belongs to.
func (s *RedisStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	c, err := s.parse(token)
	if err != nil {
		return uuid.Nil, err
	}

	stored, err := s.client.Get(ctx, sessionKeyPrefix+c.ID).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidSession
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load session: %w", err)
	}
	if stored != c.Subject {
		return uuid.Nil, ErrInvalidSession
	}

	userID, err := uuid.FromString(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}
	return userID, nil
}

// Refresh revokes a live token and issues a new one for the same user.
func (s *RedisStore) Refresh(ctx context.Context, token string) (*Token, error) {
	userID, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.Destroy(ctx, token); err != nil {
		return nil, err
	}
	return s.Create(ctx, userID)
}

// Destroy revokes the token. Destroying an unknown or expired session is not an error.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+c.ID)
	pipe.SRem(ctx, userSessionKeyPrefix+c.Subject, c.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DestroyAllForUser(ctx context.Context, userID uuid.UUID) error {
	userKey := userSessionKeyPrefix + userID.String()

	sids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := make([]string, 0, len(sids)+1)
	for _, sid := range sids {
		keys = append(keys, sessionKeyPrefix+sid)
	}
	keys = append(keys, userKey)

	return s.client.Del(ctx, keys...).Err()
}

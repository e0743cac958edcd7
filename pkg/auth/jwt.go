package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken 令牌无效
	ErrInvalidToken = errors.New("无效的令牌")
	// ErrTokenRevoked 令牌已被撤销
	ErrTokenRevoked = errors.New("令牌已被撤销")
)

// Claims 自定义JWT声明结构体
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.StandardClaims
}

// TokenManager 签发与校验访问令牌
type TokenManager struct {
	secret    []byte
	issuer    string
	expire    time.Duration
	blacklist Blacklist
	now       func() time.Time
}

// NewTokenManager 创建令牌管理器，blacklist 为 nil 时不支持撤销
func NewTokenManager(secret, issuer string, expire time.Duration, blacklist Blacklist) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		issuer:    issuer,
		expire:    expire,
		blacklist: blacklist,
		now:       time.Now,
	}
}

// GenerateToken 为用户签发访问令牌
func (m *TokenManager) GenerateToken(userID uuid.UUID) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			ExpiresAt: now.Add(m.expire).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    m.issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token failed: %w", err)
	}
	return signed, claims, nil
}

// ParseToken 解析并校验访问令牌
func (m *TokenManager) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if m.blacklist != nil {
		revoked, err := m.blacklist.IsBlacklisted(ctx, claims.Id)
		if err != nil {
			return nil, fmt.Errorf("check token blacklist failed: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

func (m *TokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	return claims, nil
}

// RevokeToken 撤销令牌，直到其自然过期
func (m *TokenManager) RevokeToken(ctx context.Context, tokenString string) error {
	if m.blacklist == nil {
		return errors.New("token blacklist not configured")
	}
	claims, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	return m.blacklist.Add(ctx, claims.Id, time.Unix(claims.ExpiresAt, 0))
}

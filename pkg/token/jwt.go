// Package token 提供了用于生成和验证会话令牌 (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey []byte        // secretKey 用于签名和验证 token 的密钥
	tokenDur  time.Duration // tokenDur 定义了会话 token 的有效期
}

// SessionClaims 在标准声明之外携带会话 ID。
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// secret: 用于签名的密钥字符串。
// expireHours: 会话 token 的过期时间（小时）。
func NewJWTManager(secret string, expireHours int) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secret),
		tokenDur:  time.Hour * time.Duration(expireHours),
	}
}

// GenerateToken 为会话签发一个 HS256 token。
func (m *JWTManager) GenerateToken(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 验证给定的 token 字符串。
// 签名不匹配、已过期或缺少会话 ID 时返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 检查签名方法是否为 HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenInvalid возвращается для просроченного или повреждённого токена.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrSecretRequired возвращается при попытке создать менеджер без секрета.
	ErrSecretRequired = errors.New("jwt secret cannot be empty")
)

// Claims — полезная нагрузка токена: кто и с какой ролью.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity — результат проверки токена.
type Identity struct {
	UserID string
	Role   domain.UserRole
}

// IsAdmin сообщает, принадлежит ли токен администратору.
func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

// TokenManager выпускает и проверяет подписанные HMAC-SHA256 токены.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт менеджер токенов. ttl <= 0 заменяется значением по умолчанию.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue выпускает токен для пользователя.
func (m *TokenManager) Issue(user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия токена и возвращает Identity.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	role := domain.UserRole(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{UserID: claims.Subject, Role: role}, nil
}

// TTL возвращает срок жизни выпускаемых токенов.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

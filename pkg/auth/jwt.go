package auth

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleAdmin: роль автора/администратора тестов
const RoleAdmin = "admin"

// Ошибки проверки токена
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenInvalid   = errors.New("token validation failed")
)

// Claims содержит поля токена, выданного сервисом идентификации
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin сообщает, есть ли у владельца токена права автора
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// JWTVerifier проверяет HMAC-подписанные токены внешнего сервиса идентификации.
// Сам сервис токены не выдаёт; Issue используется в тестах и при локальной отладке.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier создает новый верификатор. issuer может быть пустым.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// ParseToken проверяет подпись и срок действия токена
func (v *JWTVerifier) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				log.Printf("[JWT] Истёк срок действия токена пользователя ID=%d", claims.UserID)
				return nil, ErrTokenExpired
			}
		}
		log.Printf("[JWT] Ошибка при разборе токена: %v", err)
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		log.Printf("[JWT] Неожиданный издатель токена: %q", claims.Issuer)
		return nil, ErrTokenInvalid
	}
	if claims.UserID == 0 {
		// Совместимость с токенами, где пользователь передан только в sub
		if id, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil && id > 0 {
			claims.UserID = uint(id)
		} else {
			return nil, ErrTokenInvalid
		}
	}
	return claims, nil
}

// Issue подписывает токен для пользователя
func (v *JWTVerifier) Issue(userID uint, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// meet-ai/internal/stream/token.go

package stream

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuedAtLeeway - на сколько назад сдвигается iat токена, чтобы токен
// оставался валидным при расхождении часов клиента и провайдера.
const issuedAtLeeway = 60 * time.Second

// GenerateUserToken подписывает краткоживущий токен участника для провайдера.
// Если передан хотя бы один callCID, токен привязывается к этим звонкам и не
// может использоваться для входа в другие - так ограничивается гостевой доступ.
func (c *Client) GenerateUserToken(userID string, ttl time.Duration, callCIDs ...string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Add(-issuedAtLeeway).Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if len(callCIDs) > 0 {
		claims["call_cids"] = callCIDs
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.apiSecret))
	if err != nil {
		return "", fmt.Errorf("stream: failed to sign user token: %w", err)
	}
	return signed, nil
}

// serverToken - токен для аутентификации самого сервера перед API провайдера.
func (c *Client) serverToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"server": true,
		"iat":    now.Add(-issuedAtLeeway).Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.apiSecret))
}

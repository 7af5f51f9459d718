// meet-ai/internal/middleware/auth_middleware.go

package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/clause"
)

// SessionPrincipal - данные аутентифицированного пользователя из внешнего
// сервиса сессий. Им мы доверяем полностью и повторно не проверяем.
type SessionPrincipal struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Image  *string `json:"image"`
}

// AuthMiddleware проверяет сессионный JWT, выданный внешним сервисом
// аутентификации, и кладет данные пользователя в контекст запроса.
// Зеркальная запись в таблице users поддерживается здесь же - она нужна
// для атрибуции спикеров в транскриптах.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("session_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})

		if err != nil || !token.Valid {
			c.SetCookie("session_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Invalid token claims")
			return
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			handleAuthError(c, "Invalid user ID in token")
			return
		}

		cacheKey := fmt.Sprintf("session:%s:principal", userID)
		if config.RDB != nil {
			cachedData, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var principal SessionPrincipal
				if json.Unmarshal([]byte(cachedData), &principal) == nil {
					setContextAndProceed(c, &principal)
					return
				}
				slog.Warn("Failed to unmarshal cached principal", "user_id", userID, "data", cachedData)
			} else if err != redis.Nil {
				slog.Error("Redis GET command failed", "error", err, "user_id", userID)
			}
		}

		name, _ := claims["name"].(string)
		email, _ := claims["email"].(string)
		principal := SessionPrincipal{UserID: userID, Name: name, Email: email}
		if image, ok := claims["image"].(string); ok && image != "" {
			principal.Image = &image
		}

		// Обновляем зеркальную запись пользователя. Единственное место записи
		// в таблицу users - источником данных всегда остается сервис сессий.
		user := models.User{ID: principal.UserID, Name: principal.Name, Email: principal.Email, Image: principal.Image}
		err = config.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "image", "updated_at"}),
		}).Create(&user).Error
		if err != nil {
			slog.Error("Не удалось обновить зеркальную запись пользователя", "error", err, "user_id", userID)
			handleAuthError(c, "Failed to load user")
			return
		}

		if config.RDB != nil {
			jsonData, err := json.Marshal(principal)
			if err != nil {
				slog.Error("Failed to marshal principal for caching", "error", err, "user_id", userID)
			} else if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, 10*time.Minute).Err(); err != nil {
				slog.Error("Failed to SET principal to cache", "error", err, "user_id", userID)
			}
		}

		setContextAndProceed(c, &principal)
	}
}

func setContextAndProceed(c *gin.Context, principal *SessionPrincipal) {
	c.Set("user_id", principal.UserID)
	c.Set("userName", principal.Name)
	c.Set("userEmail", principal.Email)
	if principal.Image != nil {
		c.Set("userImage", *principal.Image)
	}
	c.Next()
}

func handleAuthError(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
	c.Abort()
}

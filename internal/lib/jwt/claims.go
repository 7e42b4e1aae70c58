// Package jwt реализует генерацию и парсинг JWT токенов приложения.
//
// Токен несёт имя пользователя — по нему сервис находит записи о правах
// доступа и настройках напоминаний.
package jwt

import "github.com/golang-jwt/jwt/v5"

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Username             string `json:"username"` // Имя пользователя
	jwt.RegisteredClaims        // Стандартные claims (ExpiresAt, IssuedAt и пр.)
}

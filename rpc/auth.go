package rpc

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// requireAdmin validates the bearer token on admin_* methods. Tokens are HS256
// JWTs signed with the configured secret. With no secret configured the admin
// surface is disabled entirely.
func (s *Server) requireAdmin(r *http.Request) *RPCError {
	secret := strings.TrimSpace(s.cfg.AdminJWTSecret)
	if secret == "" {
		return &RPCError{Code: codeUnauthorized, Message: "admin interface disabled"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "authorization header required"}
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return &RPCError{Code: codeUnauthorized, Message: "bearer token required"}
	}
	_, err := jwt.Parse(strings.TrimSpace(parts[1]), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return &RPCError{Code: codeUnauthorized, Message: "invalid token", Data: err.Error()}
	}
	return nil
}

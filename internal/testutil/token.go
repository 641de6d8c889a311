package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignedToken returns an HS256 JWT expiring at exp.
func SignedToken(t testing.TB, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "test-user",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

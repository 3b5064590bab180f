package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

// NewTokenAuth builds the HS256 signer/verifier shared by token issuance and
// the session guard.
func NewTokenAuth(key []byte) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", key, nil)
}

func GenerateToken(tokenAuth *jwtauth.JWTAuth, userID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := tokenAuth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromToken(token jwxjwt.Token) (string, error) {
	raw, ok := token.Get("user_id")
	if !ok {
		return "", errors.New("user_id claim is missing")
	}
	id, ok := raw.(string)
	if !ok {
		return "", errors.New("user_id claim is not a string")
	}
	return id, nil
}

func GetUserRoleFromToken(token jwxjwt.Token) (string, error) {
	raw, ok := token.Get("role")
	if !ok {
		return "", errors.New("role claim is missing")
	}
	role, ok := raw.(string)
	if !ok {
		return "", errors.New("role claim is not a string")
	}
	return role, nil
}

// DecodeExpiry reads the token's expiry without verifying the signature.
// Logout must succeed even for a token on the edge of validity, so no
// signature or expiry check happens here.
func DecodeExpiry(raw string) (time.Time, bool) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// JWTVerifier checks HS256 tokens issued by this service.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	userID, _ := claims["userId"].(string)
	if strings.TrimSpace(userID) == "" {
		return Identity{}, fmt.Errorf("%w: userId claim missing", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return Identity{UserID: userID, Email: email, Name: name, Role: role}, nil
}

// Issue signs a token for user that Verify accepts.
func (v *JWTVerifier) Issue(user models.User, ttl time.Duration) (string, error) {
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	claims := jwt.MapClaims{
		"userId": user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// IDTokenVerifier is the part of the Firebase auth client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier accepts Firebase ID tokens. The role comes from a "role"
// custom claim, and any uid listed in adminIDs is an admin.
type FirebaseVerifier struct {
	client   IDTokenVerifier
	adminIDs map[string]struct{}
}

func NewFirebaseVerifier(client IDTokenVerifier, adminIDs []string) *FirebaseVerifier {
	ids := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = struct{}{}
	}
	return &FirebaseVerifier{client: client, adminIDs: ids}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := Identity{UserID: token.UID, Role: models.RoleUser}
	if role, ok := token.Claims["role"].(string); ok && role != "" {
		identity.Role = role
	}
	if _, ok := v.adminIDs[token.UID]; ok {
		identity.Role = models.RoleAdmin
	}
	identity.Email, _ = token.Claims["email"].(string)
	identity.Name, _ = token.Claims["name"].(string)
	return identity, nil
}

// ChainVerifier tries each verifier in turn and returns the first success.
type ChainVerifier []TokenVerifier

func (c ChainVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	err := ErrInvalidToken
	for _, v := range c {
		identity, verr := v.Verify(ctx, raw)
		if verr == nil {
			return identity, nil
		}
		err = verr
	}
	return Identity{}, err
}

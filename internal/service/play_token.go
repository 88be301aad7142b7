package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
	"github.com/stemsi/assessment-pipeline/internal/model"
)

// PlayClaims is the signed grant a participant carries through a play
// session. The session itself lives only in the token.
type PlayClaims struct {
	jwt.RegisteredClaims
	QuizID   string `json:"qid"`
	Slug     string `json:"slug"`
	Unlocked bool   `json:"unl"`
}

// PlayTokens issues and verifies play session tokens.
type PlayTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewPlayTokens creates a token issuer signing with secret.
func NewPlayTokens(secret string, ttl time.Duration) *PlayTokens {
	return &PlayTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is how long a session token stays valid.
func (t *PlayTokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for a session. An empty SessionID starts a new session.
func (t *PlayTokens) Issue(sess model.PlaySession) (string, model.PlaySession, error) {
	if sess.SessionID == "" {
		sess.SessionID = uuid.NewString()
	}
	now := t.now()
	sess.ExpiresAt = now.Add(t.ttl)

	claims := PlayClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.SessionID,
			Subject:   sess.QuizID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		QuizID:   sess.QuizID,
		Slug:     sess.Slug,
		Unlocked: sess.Unlocked,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", sess, fmt.Errorf("sign play token: %w", err)
	}
	return signed, sess, nil
}

// Parse verifies a token. Any invalid or expired token is ErrAccessDenied.
func (t *PlayTokens) Parse(tokenStr string) (model.PlaySession, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &PlayClaims{}, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return model.PlaySession{}, fmt.Errorf("%w: %v", apperror.ErrAccessDenied, err)
	}

	claims, ok := token.Claims.(*PlayClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return model.PlaySession{}, fmt.Errorf("%w: invalid play token claims", apperror.ErrAccessDenied)
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return model.PlaySession{
		SessionID: claims.ID,
		QuizID:    claims.QuizID,
		Slug:      claims.Slug,
		Unlocked:  claims.Unlocked,
		ExpiresAt: exp,
	}, nil
}

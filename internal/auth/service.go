package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTokenTTL = 30 * 24 * time.Hour

// Service issues and validates anonymous session tokens. A session plays
// the part of one browser's local storage.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type TokenResponse struct {
	SessionID   string `json:"session_id"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewService(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    sessionTokenTTL,
	}
}

// NewSession mints a token for a fresh session id.
func (s *Service) NewSession() (TokenResponse, error) {
	return s.issue(uuid.NewString())
}

// Renew re-issues a token for an existing session.
func (s *Service) Renew(sessionID string) (TokenResponse, error) {
	return s.issue(sessionID)
}

func (s *Service) issue(sessionID string) (TokenResponse, error) {
	token, err := s.signToken(sessionID, s.ttl)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		SessionID:   sessionID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func (s *Service) signToken(sessionID string, ttl time.Duration) (string, error) {
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return signTokenFn(token, s.secret)
}

var signTokenFn = func(token *jwt.Token, key []byte) (string, error) {
	return token.SignedString(key)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

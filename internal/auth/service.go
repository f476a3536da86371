package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/inamate/render-go/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const tokenTTL = 12 * time.Hour

// Service issues and validates viewer tokens. When no key hash is
// configured every caller may obtain a token.
type Service struct {
	keyHash   []byte
	jwtSecret []byte
	now       func() time.Time
}

func NewService(keyHash, jwtSecret string) *Service {
	return &Service{
		keyHash:   []byte(keyHash),
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

type TokenResult struct {
	Token  string `json:"token"`
	Viewer Viewer `json:"viewer"`
}

type Viewer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HashKey returns the bcrypt hash to configure for an access key.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), 12)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// OpenAccess reports whether tokens are issued without a key.
func (s *Service) OpenAccess() bool { return len(s.keyHash) == 0 }

// IssueViewerToken checks the access key and returns a signed token for a
// new viewer.
func (s *Service) IssueViewerToken(key, name string) (*TokenResult, error) {
	if !s.OpenAccess() {
		if err := bcrypt.CompareHashAndPassword(s.keyHash, []byte(key)); err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	viewer := Viewer{ID: typeid.NewViewerID(), Name: name}
	if viewer.Name == "" {
		viewer.Name = "viewer"
	}

	token, err := s.issueToken(viewer)
	if err != nil {
		return nil, err
	}
	return &TokenResult{Token: token, Viewer: viewer}, nil
}

func (s *Service) ValidateToken(tokenString string) (*Viewer, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	viewerID, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("token subject: %w", ErrInvalidToken)
	}
	if err := typeid.Validate(viewerID, typeid.PrefixViewer); err != nil {
		return nil, fmt.Errorf("token subject: %w", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)

	return &Viewer{ID: viewerID, Name: name}, nil
}

func (s *Service) issueToken(v Viewer) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  v.ID,
		"name": v.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

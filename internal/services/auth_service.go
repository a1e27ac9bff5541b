package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"medspa/internal/auth"
	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 12 * time.Hour

var (
	// ErrBadCredentials is returned for unknown email and wrong password alike.
	ErrBadCredentials  = errors.New("email or password is incorrect")
	ErrAccountInactive = errors.New("account is not active")
)

type AuthService struct {
	Users     UserReader
	Secret    []byte
	TTL       time.Duration
	RequestID string
	Now       func() time.Time
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func (s AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultTokenTTL
}

// Login checks the bcrypt hash and issues a signed token for active users.
func (s AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.ValidationError{Field: "credentials", Msg: "email and password are required"}
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return LoginResult{}, ErrBadCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		utils.LogEvent(s.RequestID, "auth", "login", "bad password for user_id="+strconv.FormatInt(u.ID, 10))
		return LoginResult{}, ErrBadCredentials
	}
	if u.Status != "" && !strings.EqualFold(u.Status, "active") {
		return LoginResult{}, ErrAccountInactive
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	p := domain.Principal{UserID: domain.ID(u.ID), Name: u.Name, Role: strings.ToLower(u.Role)}
	tok, err := auth.IssueToken(s.Secret, p, s.ttl(), now)
	if err != nil {
		return LoginResult{}, domain.InternalError{Msg: "could not issue token", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", "user_id="+strconv.FormatInt(u.ID, 10)+" role="+p.Role)
	return LoginResult{Token: tok, ExpiresAt: now.Add(s.ttl()), User: u}, nil
}

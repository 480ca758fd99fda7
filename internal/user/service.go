package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service is the User Directory plus the local identity bridge. Session
// tokens carry the external subject id; everything downstream resolves it
// back to an internal user row through this directory.
type Service struct {
	repo      Repository
	jwtSecret string
}

type sessionClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{repo: repo, jwtSecret: jwtSecret}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password are required")
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unsupported role %q", req.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:                uuid.New().String(),
		ExternalID:        "usr_" + uuid.New().String(),
		Role:              req.Role,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		ImageURL:          req.ImageURL,
		Phone:             req.Phone,
		Email:             req.Email,
		Specialization:    req.Specialization,
		YearsOfExperience: req.YearsOfExperience,
		Password:          string(hashed),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ExternalID,
			Issuer:    "telecare",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: ss,
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		Role:        u.Role,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}, nil
}

// ValidateToken checks a session token and returns the external subject id.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SenderByID(ctx context.Context, id string) (*SenderView, error) {
	return s.repo.SenderByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, query string) ([]User, error) {
	return s.repo.Search(ctx, query, 10)
}

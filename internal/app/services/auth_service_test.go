package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/repositories/repotest"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
	"github.com/yigit/scholarship/internal/pkg/auth"
)

func newAuthService() (*AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	return NewAuthService(repotest.NewUsers(), jwtService, zerolog.Nop()), jwtService
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, jwtService := newAuthService()

	registered, err := svc.Register(ctx, &dto.RegisterRequest{Username: " student01 ", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Username != "student01" || registered.User.Role != string(models.RoleUser) {
		t.Errorf("user = %+v", registered.User)
	}
	if registered.Token.TokenType != "Bearer" || registered.Token.ExpiresIn != 3600 {
		t.Errorf("token = %+v", registered.Token)
	}

	claims, err := jwtService.ValidateAndExtractClaims(registered.Token.AccessToken)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.UserID != registered.User.ID || claims.RoleType != models.RoleUser {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Register(ctx, &dto.RegisterRequest{Username: "student01", Password: "another123"}); !errors.Is(err, apperrors.ErrUsernameTaken) {
		t.Errorf("duplicate Register error = %v, want ErrUsernameTaken", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "student01", Password: "secret123"}); err != nil {
		t.Errorf("Login: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "student01", Password: "wrong1234"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "secret123"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}

	me, err := svc.CurrentUser(ctx, appauth.Principal{UserID: registered.User.ID, Username: "student01", Role: models.RoleUser})
	if err != nil || me.Username != "student01" {
		t.Errorf("CurrentUser = %+v, %v", me, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "secret123"},
		{"bad characters", "bad name!", "secret123"},
		{"short password", "student02", "a1"},
		{"no digit", "student02", "onlyletters"},
		{"no letter", "student02", "12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: tt.username, Password: tt.password})
			if !errors.Is(err, apperrors.ErrValidationFailed) {
				t.Errorf("error = %v, want ErrValidationFailed", err)
			}
		})
	}
}

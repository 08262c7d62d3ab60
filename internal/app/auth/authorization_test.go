package auth

import (
	"errors"
	"testing"

	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

func TestAuthorizationPredicates(t *testing.T) {
	owner := Principal{UserID: 1, Username: "owner", Role: models.RoleUser}
	other := Principal{UserID: 2, Username: "other", Role: models.RoleUser}
	admin := Principal{UserID: 3, Username: "admin", Role: models.RoleAdmin}
	anon := Principal{}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"admin passes admin gate", RequireAdmin(admin), nil},
		{"user fails admin gate", RequireAdmin(owner), apperrors.ErrPermissionDenied},
		{"anonymous fails admin gate", RequireAdmin(anon), apperrors.ErrUnauthorized},
		{"owner passes owner gate", RequireOwner(owner, 1), nil},
		{"admin fails owner gate", RequireOwner(admin, 1), apperrors.ErrPermissionDenied},
		{"other fails owner gate", RequireOwner(other, 1), apperrors.ErrPermissionDenied},
		{"owner passes owner-or-admin", RequireOwnerOrAdmin(owner, 1), nil},
		{"admin passes owner-or-admin", RequireOwnerOrAdmin(admin, 1), nil},
		{"other fails owner-or-admin", RequireOwnerOrAdmin(other, 1), apperrors.ErrPermissionDenied},
		{"anonymous fails owner-or-admin", RequireOwnerOrAdmin(anon, 1), apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == nil {
				if tt.err != nil {
					t.Fatalf("err = %v, want nil", tt.err)
				}
				return
			}
			if !errors.Is(tt.err, tt.want) {
				t.Fatalf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/scholarship/internal/app/models/dto"
	"github.com/yigit/scholarship/internal/app/repositories/repotest"
	"github.com/yigit/scholarship/internal/pkg/apperrors"
)

func TestRegistrationLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewRegistrationService(repotest.NewRegistrations(), zerolog.Nop())

	registered, err := svc.IsRegistered(ctx, student)
	if err != nil || registered {
		t.Fatalf("IsRegistered before = %v, %v", registered, err)
	}
	if _, err := svc.Update(ctx, student, &dto.RegistrationRequest{FullName: "A", College: "C", Course: "D"}); !errors.Is(err, apperrors.ErrRegistrationNotFound) {
		t.Errorf("Update before Create error = %v, want ErrRegistrationNotFound", err)
	}

	req := &dto.RegistrationRequest{
		FullName: " Asha Patil ", DateOfBirth: "2004-06-15", College: "Fergusson", Course: "B.Sc", IsOrphan: true,
	}
	reg, err := svc.Create(ctx, student, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reg.FullName != "Asha Patil" || reg.DateOfBirth == nil || reg.DateOfBirth.Format("2006-01-02") != "2004-06-15" || !reg.IsOrphan {
		t.Errorf("registration = %+v", reg)
	}

	if _, err := svc.Create(ctx, student, req); !errors.Is(err, apperrors.ErrRegistrationExists) {
		t.Errorf("second Create error = %v, want ErrRegistrationExists", err)
	}

	req.Course = "M.Sc"
	updated, err := svc.Update(ctx, student, req)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != reg.ID || updated.Course != "M.Sc" {
		t.Errorf("updated = %+v", updated)
	}

	got, err := svc.Get(ctx, student)
	if err != nil || got.Course != "M.Sc" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := svc.Get(ctx, intruder); !errors.Is(err, apperrors.ErrRegistrationNotFound) {
		t.Errorf("Get for unregistered error = %v, want ErrRegistrationNotFound", err)
	}
}

func TestRegistrationValidation(t *testing.T) {
	svc := NewRegistrationService(repotest.NewRegistrations(), zerolog.Nop())

	_, err := svc.Create(context.Background(), student, &dto.RegistrationRequest{FullName: "A", College: "C", Course: "D", DateOfBirth: "15/06/2004"})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("bad date error = %v, want ErrValidationFailed", err)
	}
	_, err = svc.Create(context.Background(), student, &dto.RegistrationRequest{FullName: "  "})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("blank fields error = %v, want ErrValidationFailed", err)
	}
}

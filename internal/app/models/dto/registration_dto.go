package dto

import (
	"time"

	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/pkg/helpers"
)

// RegistrationRequest carries the student profile for create and update
type RegistrationRequest struct {
	FullName    string `json:"fullName" binding:"required,max=150" example:"Asha Patil"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02" example:"2004-06-15"`
	Gender      string `json:"gender" binding:"max=20" example:"female"`
	Phone       string `json:"phone" binding:"max=30" example:"+91 98765 43210"`
	Address     string `json:"address" example:"12 MG Road, Pune"`
	College     string `json:"college" binding:"required,max=200" example:"Fergusson College"`
	Course      string `json:"course" binding:"required,max=200" example:"B.Sc Physics"`
	Caste       string `json:"caste" binding:"max=100"`
	IsOrphan    bool   `json:"isOrphan"`
	IsDisabled  bool   `json:"isDisabled"`
}

// RegistrationResponse is the stored student profile
type RegistrationResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	FullName    string    `json:"fullName"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	College     string    `json:"college"`
	Course      string    `json:"course"`
	Caste       string    `json:"caste"`
	IsOrphan    bool      `json:"isOrphan"`
	IsDisabled  bool      `json:"isDisabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RegistrationStatusResponse tells whether the caller has registered
type RegistrationStatusResponse struct {
	Registered bool `json:"registered"`
}

// NewRegistrationResponse converts a registration model for output
func NewRegistrationResponse(reg *models.StudentRegistration) RegistrationResponse {
	return RegistrationResponse{
		ID:          reg.ID,
		UserID:      reg.UserID,
		FullName:    reg.FullName,
		DateOfBirth: helpers.FormatDate(reg.DateOfBirth),
		Gender:      reg.Gender,
		Phone:       reg.Phone,
		Address:     reg.Address,
		College:     reg.College,
		Course:      reg.Course,
		Caste:       reg.Caste,
		IsOrphan:    reg.IsOrphan,
		IsDisabled:  reg.IsDisabled,
		CreatedAt:   reg.CreatedAt,
		UpdatedAt:   reg.UpdatedAt,
	}
}

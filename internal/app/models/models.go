package models

import "strings"

// RoleType defines the user role type
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)

// IsAdmin reports whether the role grants administrative access.
func (r RoleType) IsAdmin() bool {
	return r == RoleAdmin
}

// ApplicationType is the discriminant tag of an application variant.
type ApplicationType string

const (
	ApplicationTypeSchoolFees     ApplicationType = "schoolFees"
	ApplicationTypeTravelExpenses ApplicationType = "travelExpenses"
	ApplicationTypeStudyBooks     ApplicationType = "studyBooks"
)

// ApplicationTypes lists the variants in lookup order.
var ApplicationTypes = []ApplicationType{
	ApplicationTypeSchoolFees,
	ApplicationTypeTravelExpenses,
	ApplicationTypeStudyBooks,
}

// Label returns the human readable name of the application type.
func (t ApplicationType) Label() string {
	switch t {
	case ApplicationTypeSchoolFees:
		return "School Fees"
	case ApplicationTypeTravelExpenses:
		return "Travel Expenses"
	case ApplicationTypeStudyBooks:
		return "Study Books"
	default:
		return string(t)
	}
}

// Slug returns the URL path segment used for the type.
func (t ApplicationType) Slug() string {
	switch t {
	case ApplicationTypeSchoolFees:
		return "school-fees"
	case ApplicationTypeTravelExpenses:
		return "travel-expenses"
	case ApplicationTypeStudyBooks:
		return "study-books"
	default:
		return string(t)
	}
}

// Valid reports whether t is a known variant.
func (t ApplicationType) Valid() bool {
	for _, known := range ApplicationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseApplicationType accepts either the tag ("schoolFees") or the slug ("school-fees").
func ParseApplicationType(s string) (ApplicationType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range ApplicationTypes {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, t.Slug()) {
			return t, true
		}
	}
	return "", false
}

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Document field names
const (
	DocBirthCertificate   = "birthCertificate"
	DocLeavingCertificate = "leavingCertificate"
	DocMarksheet          = "marksheet"
	DocAdmissionProof     = "admissionProof"
	DocIncomeProof        = "incomeProof"
	DocBankAccount        = "bankAccount"
	DocRationCard         = "rationCard"
	DocIDCard             = "idCard"
)

// SchoolFeesRequiredDocuments must all be uploaded with a school fees application.
var SchoolFeesRequiredDocuments = []string{
	DocBirthCertificate,
	DocLeavingCertificate,
	DocMarksheet,
	DocAdmissionProof,
	DocIncomeProof,
	DocBankAccount,
}

// SchoolFeesOptionalDocuments may be uploaded with a school fees application.
var SchoolFeesOptionalDocuments = []string{DocRationCard}

// DocumentFields returns the document slots a variant carries.
func (t ApplicationType) DocumentFields() []string {
	switch t {
	case ApplicationTypeSchoolFees:
		fields := make([]string, 0, len(SchoolFeesRequiredDocuments)+len(SchoolFeesOptionalDocuments))
		fields = append(fields, SchoolFeesRequiredDocuments...)
		return append(fields, SchoolFeesOptionalDocuments...)
	case ApplicationTypeTravelExpenses:
		return []string{DocIDCard}
	default:
		return nil
	}
}

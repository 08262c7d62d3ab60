package dto

// RegistrationSummary is the part of a student profile shown in search results
type RegistrationSummary struct {
	FullName string `json:"fullName"`
	College  string `json:"college"`
	Course   string `json:"course"`
	Address  string `json:"address"`
}

// BookSearchResult is one study books application holding the searched number
type BookSearchResult struct {
	ApplicationID string               `json:"applicationId"`
	GeneratedID   string               `json:"generatedId"`
	Status        string               `json:"status"`
	Standard      string               `json:"standard"`
	Stream        string               `json:"stream"`
	Medium        string               `json:"medium"`
	BookNames     []string             `json:"bookNames"`
	Registration  *RegistrationSummary `json:"registration,omitempty"`
}

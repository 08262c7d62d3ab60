package controllers

import "testing"

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		contentType, fileName, want string
	}{
		{"application/pdf", "marks.pdf", `inline; filename=marks.pdf`},
		{"image/png", "id card.png", `inline; filename="id card.png"`},
		{"application/octet-stream", "blob.bin", `attachment; filename=blob.bin`},
	}
	for _, tt := range tests {
		if got := ContentDisposition(tt.contentType, tt.fileName); got != tt.want {
			t.Errorf("ContentDisposition(%q, %q) = %q, want %q", tt.contentType, tt.fileName, got, tt.want)
		}
	}
}

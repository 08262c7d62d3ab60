package services

import (
	"bytes"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/scholarship/internal/app/auth"
	"github.com/yigit/scholarship/internal/app/models"
	"github.com/yigit/scholarship/internal/app/repositories/repotest"
	"github.com/yigit/scholarship/internal/pkg/filestorage"
)

var (
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 17)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 32)...)

	student  = appauth.Principal{UserID: 1, Username: "student01", Role: models.RoleUser}
	intruder = appauth.Principal{UserID: 2, Username: "student02", Role: models.RoleUser}
	admin    = appauth.Principal{UserID: 99, Username: "admin", Role: models.RoleAdmin}
)

const testMaxFileSize = 4096

func upload(name, contentType string, data []byte) UploadedFile {
	return UploadedFile{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func schoolFeesFiles() map[string]UploadedFile {
	files := make(map[string]UploadedFile)
	for _, field := range models.SchoolFeesRequiredDocuments {
		files[field] = upload(field+".pdf", "application/pdf", pdfBytes)
	}
	return files
}

// clock returns successive instants one minute apart.
func clock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

type fixture struct {
	dir      string
	store    *filestorage.LocalStorage
	apps     *repotest.Applications
	regs     *repotest.Registrations
	ingestor *DocumentIngestor
	svc      *ApplicationService
	docs     *DocumentService
	search   *SearchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := filestorage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	apps := repotest.NewApplications()
	regs := repotest.NewRegistrations()
	log := zerolog.Nop()

	ingestor := NewDocumentIngestor(store, UploadPolicy{MaxFileSize: testMaxFileSize, SniffContent: true}, log)
	svc := NewApplicationService(apps, ingestor, log)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = clock(start)
	ingestor.now = clock(start)

	return &fixture{
		dir:      dir,
		store:    store,
		apps:     apps,
		regs:     regs,
		ingestor: ingestor,
		svc:      svc,
		docs:     NewDocumentService(apps, store, testMaxFileSize, log),
		search:   NewSearchService(apps, regs, log),
	}
}

// blobCount counts stored objects, ignoring in-flight temp files.
func (f *fixture) blobCount(t *testing.T) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !strings.HasPrefix(d.Name(), ".upload-") {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk storage: %v", err)
	}
	return n
}

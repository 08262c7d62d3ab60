package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yigit/scholarship/internal/app/models"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type formFile struct {
	field       string
	fileName    string
	contentType string
	data        []byte
}

func doMultipart(t *testing.T, router *gin.Engine, path, token string, values map[string]string, files []formFile) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range values {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.fileName+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("POST %s: decode %q: %v", path, w.Body.String(), err)
	}
	return w, env
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"password": "Passw0rd123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s = %d: %s", username, w.Code, w.Body.String())
	}
	return tokenFor(t, env)
}

func loginAdmin(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Adm1nPassword",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin login = %d: %s", w.Code, w.Body.String())
	}
	return tokenFor(t, env)
}

func schoolFeesForm() []formFile {
	files := make([]formFile, 0, len(models.SchoolFeesRequiredDocuments))
	for _, field := range models.SchoolFeesRequiredDocuments {
		files = append(files, formFile{field: field, fileName: field + ".pdf", contentType: "application/pdf", data: samplePDF})
	}
	return files
}

func listMine(t *testing.T, router *gin.Engine, token string) []json.RawMessage {
	t.Helper()
	w, env := doJSON(t, router, http.MethodGet, "/api/v1/applications/my-applications", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my-applications = %d: %s", w.Code, w.Body.String())
	}
	var apps []json.RawMessage
	if err := json.Unmarshal(env.Data, &apps); err != nil {
		t.Fatalf("decode list %s: %v", env.Data, err)
	}
	return apps
}

func TestSchoolFeesUploadAndDocumentFetch(t *testing.T) {
	router := newTestRouter(t)
	owner := registerUser(t, router, "student01")
	other := registerUser(t, router, "student02")
	admin := loginAdmin(t, router)

	w, env := doMultipart(t, router, "/api/v1/applications/school-fees", owner, nil, schoolFeesForm())
	if w.Code != http.StatusCreated {
		t.Fatalf("submit = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID        string `json:"id"`
		Documents map[string]struct {
			FileName string `json:"fileName"`
			Size     int64  `json:"size"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	if doc := created.Documents[models.DocMarksheet]; doc.FileName != "marksheet.pdf" || doc.Size != int64(len(samplePDF)) {
		t.Errorf("marksheet = %+v", doc)
	}

	path := "/api/v1/applications/" + created.ID + "/file/" + models.DocMarksheet
	fetch := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	for name, token := range map[string]string{"owner": owner, "admin": admin} {
		t.Run(name, func(t *testing.T) {
			rec := fetch(token)
			if rec.Code != http.StatusOK {
				t.Fatalf("fetch = %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
				t.Errorf("Content-Type = %q", got)
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(len(samplePDF)) {
				t.Errorf("Content-Length = %q, want %d", got, len(samplePDF))
			}
			disposition := rec.Header().Get("Content-Disposition")
			if !strings.HasPrefix(disposition, "inline") || !strings.Contains(disposition, "marksheet.pdf") {
				t.Errorf("Content-Disposition = %q", disposition)
			}
			if !bytes.Equal(rec.Body.Bytes(), samplePDF) {
				t.Errorf("body differs from the uploaded bytes")
			}
		})
	}

	if rec := fetch(other); rec.Code != http.StatusForbidden {
		t.Errorf("other user fetch = %d, want 403", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/"+created.ID+"/file/"+models.DocRationCard, nil)
	req.Header.Set("Authorization", "Bearer "+owner)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty slot fetch = %d, want 404", rec.Code)
	}
}

func TestSchoolFeesRejectsWordDocument(t *testing.T) {
	router := newTestRouter(t)
	owner := registerUser(t, router, "student01")

	files := schoolFeesForm()
	files[2] = formFile{
		field:       files[2].field,
		fileName:    "marks.docx",
		contentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		data:        []byte("PK\x03\x04 not really a document"),
	}

	w, env := doMultipart(t, router, "/api/v1/applications/school-fees", owner, nil, files)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("submit = %d, want 400: %s", w.Code, w.Body.String())
	}
	if env.Error == nil || env.Error.Code != "FILE_001" {
		t.Errorf("error = %+v, want FILE_001", env.Error)
	}
	if apps := listMine(t, router, owner); len(apps) != 0 {
		t.Errorf("stored %d applications, want 0", len(apps))
	}
}

func TestSubmissionBodyTooLarge(t *testing.T) {
	router := newLimitedRouter(t, 1024)
	owner := registerUser(t, router, "student01")

	files := schoolFeesForm()
	files[0].data = append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 4096)...)

	w, env := doMultipart(t, router, "/api/v1/applications/school-fees", owner, nil, files)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("submit = %d, want 400: %s", w.Code, w.Body.String())
	}
	if env.Error == nil || env.Error.Code != "FILE_002" {
		t.Errorf("error = %+v, want FILE_002", env.Error)
	}
	if apps := listMine(t, router, owner); len(apps) != 0 {
		t.Errorf("stored %d applications, want 0", len(apps))
	}
}

func TestTravelExpensesRejectsNonFiniteNumbers(t *testing.T) {
	router := newTestRouter(t)
	owner := registerUser(t, router, "student01")
	admin := loginAdmin(t, router)

	card := []formFile{{field: models.DocIDCard, fileName: "id.pdf", contentType: "application/pdf", data: samplePDF}}
	values := map[string]string{
		"residencePlace":   "Pune",
		"destinationPlace": "Mumbai",
		"distance":         "NaN",
		"travelMode":       "train",
		"aidRequired":      "Inf",
	}

	w, env := doMultipart(t, router, "/api/v1/applications/travel-expenses", owner, values, card)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("submit = %d, want 400: %s", w.Code, w.Body.String())
	}
	if env.Error == nil || env.Error.Code != "VAL_001" {
		t.Errorf("error = %+v, want VAL_001", env.Error)
	}

	if apps := listMine(t, router, owner); len(apps) != 0 {
		t.Errorf("stored %d applications, want 0", len(apps))
	}
	if w, env := doJSON(t, router, http.MethodGet, "/api/v1/applications/all", admin, nil); w.Code != http.StatusOK || !env.Success {
		t.Errorf("list all = %d: %s", w.Code, w.Body.String())
	}
}

func TestStudyBooksRejectsOverlongYear(t *testing.T) {
	router := newTestRouter(t)
	owner := registerUser(t, router, "student01")

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/applications/study-books", owner, map[string]string{
		"yearOfStudy":   strings.Repeat("y", 51),
		"field":         "Science",
		"booksRequired": "Physics Vol. 1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("submit = %d, want 400: %s", w.Code, w.Body.String())
	}
	if env.Error == nil || env.Error.Code != "VAL_001" {
		t.Errorf("error = %+v, want VAL_001", env.Error)
	}
}

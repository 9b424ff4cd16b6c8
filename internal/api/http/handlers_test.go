package http_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/mindengage-tka/internal/api/http"
	auth "github.com/mind-engage/mindengage-tka/internal/auth/middleware"
	"github.com/mind-engage/mindengage-tka/internal/events"
	"github.com/mind-engage/mindengage-tka/internal/exam"
	"github.com/mind-engage/mindengage-tka/internal/kv"
	"github.com/mind-engage/mindengage-tka/internal/rbac"
	"github.com/mind-engage/mindengage-tka/internal/repository"
	"github.com/mind-engage/mindengage-tka/internal/session"
	"github.com/mind-engage/mindengage-tka/internal/storage"
	syncx "github.com/mind-engage/mindengage-tka/internal/sync"
)

type harness struct {
	t       *testing.T
	h       http.Handler
	authSvc *auth.AuthService
	repo    *repository.KVRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, _ := test.NewNullLogger()
	repo := repository.New(kv.NewMemory())
	bus := events.NewBus()
	ctrl := session.New(repo, session.WithBus(bus), session.WithLogger(log))
	merger := syncx.New(repo, bus, log)

	blobs, err := storage.NewFSStore(t.TempDir(), "/assets")
	if err != nil {
		t.Fatal(err)
	}
	authSvc := auth.NewAuthService("test-secret", time.Hour)
	hash, _ := bcrypt.GenerateFromPassword([]byte("216216"), bcrypt.MinCost)
	authSvc.AddAccount("216jaya", string(hash), rbac.RoleAdmin)

	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Sessions:  ctrl,
		Merger:    merger,
		Fetcher:   syncx.HTTPFetcher{},
		Blobs:     blobs,
		Auth:      authSvc,
		MaxUpload: 1 << 20,
		Now:       func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) },
	})
	return &harness{t: t, h: r, authSvc: authSvc, repo: repo}
}

func (h *harness) token(role string) string {
	h.t.Helper()
	tok, _, err := h.authSvc.IssueJWT("tester", role)
	if err != nil {
		h.t.Fatal(err)
	}
	return tok
}

func (h *harness) do(method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func (h *harness) send(method, path, token string, v any) *httptest.ResponseRecorder {
	h.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			h.t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}
	return h.do(method, path, token, "application/json", body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return mw.FormDataContentType(), &buf
}

func TestStudentFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.send(http.MethodGet, "/settings", "", nil)
	if rec.Code != http.StatusOK || decode[exam.SchoolSettings](t, rec).SchoolName != "SMP Negeri 216 Jakarta" {
		t.Fatalf("settings: %d", rec.Code)
	}

	rec = h.send(http.MethodPost, "/sessions", "", map[string]string{
		"nis": "1001", "name": "Budi", "className": "IX-3", "subject": "Matematika", "package": "Paket 1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "correctAnswer") {
		t.Fatalf("session view leaks answer keys: %s", rec.Body)
	}
	v := decode[session.View](t, rec)
	if len(v.Questions) != 2 {
		t.Fatalf("expected the 2 seeded math questions, got %d", len(v.Questions))
	}

	// seed: question "1" and "2" both have key B
	answers := map[string]string{"1": "B", "2": "C"}
	for qid, a := range answers {
		rec = h.send(http.MethodPut, "/sessions/"+v.ID+"/answers/"+qid, "", map[string]string{"answer": a})
		if rec.Code != http.StatusOK {
			t.Fatalf("answer %s: %d %s", qid, rec.Code, rec.Body)
		}
	}
	rec = h.send(http.MethodPut, "/sessions/"+v.ID+"/answers/1", "", map[string]string{"answer": "Z"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid option: expected 400, got %d", rec.Code)
	}

	rec = h.send(http.MethodPost, "/sessions/"+v.ID+"/submit", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body)
	}
	res := decode[session.ResultView](t, rec)
	if res.Score != 50 || res.CorrectCount != 1 || res.WrongCount != 1 || res.Feedback != "Ayo Belajar Lagi!" {
		t.Fatalf("unexpected result %+v", res)
	}

	if rec = h.send(http.MethodPost, "/sessions/"+v.ID+"/submit", "", nil); rec.Code != http.StatusConflict {
		t.Fatalf("second submit: expected 409, got %d", rec.Code)
	}
	if rec = h.send(http.MethodDelete, "/sessions/"+v.ID, "", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("abandon: %d", rec.Code)
	}
	if rec = h.send(http.MethodGet, "/sessions/"+v.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("after abandon: expected 404, got %d", rec.Code)
	}

	rs, _ := h.repo.Results(context.Background())
	if len(rs) != 1 || rs[0].ClassName != "IX-3" {
		t.Fatalf("expected one stored result, got %+v", rs)
	}
}

func TestStartRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	for _, body := range []map[string]string{
		{"nis": "", "name": "Budi", "className": "IX-1", "subject": "Matematika", "package": "Paket 1"},
		{"nis": "1", "name": "Budi", "className": "IX-1", "subject": "Fisika", "package": "Paket 1"},
	} {
		if rec := h.send(http.MethodPost, "/sessions", "", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", body, rec.Code)
		}
	}

	rec := h.send(http.MethodPost, "/sessions", "", map[string]string{
		"nis": "1", "name": "Budi", "className": "IX-1", "subject": "Matematika", "package": "Paket 5",
	})
	v := decode[session.View](t, rec)
	if v.State != session.StateNoQuestions {
		t.Fatalf("expected no_questions, got %s", v.State)
	}
	if rec = h.send(http.MethodPost, "/sessions/"+v.ID+"/submit", "", nil); rec.Code != http.StatusConflict {
		t.Fatalf("submit without questions: expected 409, got %d", rec.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	h := newHarness(t)
	if rec := h.send(http.MethodGet, "/admin/results", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	proctor := h.token(rbac.RoleProctor)
	if rec := h.send(http.MethodGet, "/admin/results", proctor, nil); rec.Code != http.StatusOK {
		t.Fatalf("proctor read: expected 200, got %d", rec.Code)
	}
	if rec := h.send(http.MethodPut, "/admin/settings", proctor, exam.SeedSettings()); rec.Code != http.StatusForbidden {
		t.Fatalf("proctor write: expected 403, got %d", rec.Code)
	}

	rec := h.send(http.MethodPost, "/auth/login", "", map[string]string{"username": "216jaya", "password": "216216"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	tok := decode[map[string]any](t, rec)["access_token"].(string)
	rec = h.send(http.MethodGet, "/auth/me", tok, nil)
	me := decode[map[string]any](t, rec)
	if me["sub"] != "216jaya" || me["role"] != "admin" {
		t.Fatalf("unexpected /auth/me %v", me)
	}
}

func TestAdminQuestions(t *testing.T) {
	h := newHarness(t)
	admin := h.token(rbac.RoleAdmin)

	q := exam.Question{
		Number: 3, Text: "5 x 5 = ?", Options: exam.Options{A: "10", B: "20", C: "25", D: "30"},
		CorrectAnswer: exam.OptionC, Subject: exam.SubjectMath, Package: "Paket 2",
	}
	rec := h.send(http.MethodPost, "/admin/questions", admin, q)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	created := decode[exam.Question](t, rec)
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	created.Text = "5 x 6 = ?"
	created.CorrectAnswer = exam.OptionD
	if rec = h.send(http.MethodPut, "/admin/questions/"+created.ID, admin, created); rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body)
	}
	bad := created
	bad.Options.B = ""
	if rec = h.send(http.MethodPut, "/admin/questions/"+created.ID, admin, bad); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid update: expected 400, got %d", rec.Code)
	}

	rec = h.send(http.MethodGet, "/admin/questions?package=Paket+2", admin, nil)
	list := decode[[]exam.Question](t, rec)
	if len(list) != 1 || list[0].Text != "5 x 6 = ?" {
		t.Fatalf("unexpected list %+v", list)
	}

	if rec = h.send(http.MethodDelete, "/admin/questions/"+created.ID, admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec = h.send(http.MethodDelete, "/admin/questions/missing", admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete missing: %d", rec.Code)
	}

	sheet := "Nomor,Soal,A,B,C,D,Kunci,Mapel,Paket\n1,2 + 3 = ?,4,5,6,7,B,Matematika,Paket 3\n"
	ct, body := multipartBody(t, nil, "soal.csv", []byte(sheet))
	rec = h.do(http.MethodPost, "/admin/questions/import", admin, ct, body)
	if rec.Code != http.StatusOK || decode[map[string]int](t, rec)["imported"] != 1 {
		t.Fatalf("import: %d %s", rec.Code, rec.Body)
	}
	ct, body = multipartBody(t, nil, "soal.txt", []byte(sheet))
	if rec = h.do(http.MethodPost, "/admin/questions/import", admin, ct, body); rec.Code != http.StatusBadRequest {
		t.Fatalf("import txt: expected 400, got %d", rec.Code)
	}
}

func seedResult(t *testing.T, h *harness, id, class string, score int) {
	t.Helper()
	err := h.repo.SaveResult(context.Background(), exam.ExamResult{
		ID: id, NIS: "1" + id, StudentName: "Siswa " + id, ClassName: class,
		Subject: exam.SubjectMath, Package: "Paket 1",
		Score: score, CorrectCount: score / 10, WrongCount: 10 - score/10, TotalQuestions: 10,
		Timestamp: time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAdminResults(t *testing.T) {
	h := newHarness(t)
	admin := h.token(rbac.RoleAdmin)
	seedResult(t, h, "a", "IX-1", 40)
	seedResult(t, h, "b", "IX-2", 90)

	rec := h.send(http.MethodGet, "/admin/results?class=IX-2", admin, nil)
	if rs := decode[[]exam.ExamResult](t, rec); len(rs) != 1 || rs[0].ID != "b" {
		t.Fatalf("unexpected filtered results %+v", rs)
	}

	rec = h.send(http.MethodPatch, "/admin/results/a", admin, map[string]int{"score": 65})
	if rec.Code != http.StatusOK || decode[exam.ExamResult](t, rec).Score != 65 {
		t.Fatalf("patch: %d", rec.Code)
	}
	if rec = h.send(http.MethodPatch, "/admin/results/a", admin, map[string]int{"score": 120}); rec.Code != http.StatusBadRequest {
		t.Fatalf("out of range: expected 400, got %d", rec.Code)
	}
	if rec = h.send(http.MethodPatch, "/admin/results/zzz", admin, map[string]int{"score": 10}); rec.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", rec.Code)
	}

	rec = h.send(http.MethodGet, "/admin/results/export.csv", admin, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "TKA_Hasil_2025-06-01.csv") {
		t.Fatalf("csv export: %d %v", rec.Code, rec.Header())
	}
	recs, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil || len(recs) != 3 {
		t.Fatalf("csv rows: %v %v", len(recs), err)
	}

	rec = h.send(http.MethodGet, "/admin/results/export.xlsx?class=IX-1", admin, nil)
	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("xlsx export: %v", err)
	}
	rows, _ := f.GetRows(f.GetSheetName(0))
	f.Close()
	if len(rows) != 2 || rows[1][9] != "65" {
		t.Fatalf("unexpected xlsx rows %v", rows)
	}

	if rec = h.send(http.MethodDelete, "/admin/results/a", admin, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rs, _ := h.repo.Results(context.Background()); len(rs) != 1 {
		t.Fatalf("expected 1 result left, got %d", len(rs))
	}
}

func TestAdminSettingsBackupAndSync(t *testing.T) {
	h := newHarness(t)
	admin := h.token(rbac.RoleAdmin)

	s := exam.SeedSettings()
	s.Motto = "Jaya Selalu"
	if rec := h.send(http.MethodPut, "/admin/settings", admin, s); rec.Code != http.StatusOK {
		t.Fatalf("save settings: %d %s", rec.Code, rec.Body)
	}

	rec := h.send(http.MethodGet, "/admin/backup", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("backup: %d", rec.Code)
	}
	backup := rec.Body.Bytes()
	var doc syncx.Backup
	if err := json.Unmarshal(backup, &doc); err != nil || doc.Settings.Motto != "Jaya Selalu" {
		t.Fatalf("backup document: %v %+v", err, doc.Settings)
	}

	doc.Settings.Motto = "Dari Cadangan"
	raw, _ := json.Marshal(doc)
	if rec = h.do(http.MethodPost, "/admin/backup", admin, "application/json", bytes.NewReader(raw)); rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed import: expected 428, got %d", rec.Code)
	}
	if cur, _ := h.repo.Settings(context.Background()); cur.Motto != "Jaya Selalu" {
		t.Fatalf("unconfirmed import wrote data")
	}
	if rec = h.do(http.MethodPost, "/admin/backup?confirm=true", admin, "application/json", bytes.NewReader(raw)); rec.Code != http.StatusOK {
		t.Fatalf("confirmed import: %d %s", rec.Code, rec.Body)
	}
	if cur, _ := h.repo.Settings(context.Background()); cur.Motto != "Dari Cadangan" {
		t.Fatalf("confirmed import not applied")
	}
	if rec = h.do(http.MethodPost, "/admin/backup?confirm=true", admin, "application/json", strings.NewReader(`{"questions":[]}`)); rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete backup: expected 400, got %d", rec.Code)
	}

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := exam.SeedSettings()
		s.Motto = "Dari Server"
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": exam.SeedQuestions()[:1], "settings": s})
	}))
	defer remote.Close()

	rec = h.send(http.MethodPost, "/admin/sync", admin, map[string]string{"url": remote.URL})
	if rec.Code != http.StatusOK || !decode[map[string]bool](t, rec)["applied"] {
		t.Fatalf("sync: %d %s", rec.Code, rec.Body)
	}
	if qs, _ := h.repo.Questions(context.Background()); len(qs) != 1 {
		t.Fatalf("sync should replace questions wholesale, got %d", len(qs))
	}

	// settings now carry no remote url, so a bare sync does nothing
	rec = h.do(http.MethodPost, "/admin/sync", admin, "", nil)
	if rec.Code != http.StatusOK || decode[map[string]bool](t, rec)["applied"] {
		t.Fatalf("bare sync: %d %s", rec.Code, rec.Body)
	}

	// chunked request with an empty body
	req := httptest.NewRequest(http.MethodPost, "/admin/sync", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || decode[map[string]bool](t, rec)["applied"] {
		t.Fatalf("chunked empty sync: %d %s", rec.Code, rec.Body)
	}
	if rec = h.do(http.MethodPost, "/admin/sync", admin, "application/json", strings.NewReader("{")); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed sync body: expected 400, got %d", rec.Code)
	}
}

func TestAssets(t *testing.T) {
	h := newHarness(t)
	admin := h.token(rbac.RoleAdmin)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	ct, body := multipartBody(t, map[string]string{"kind": "logo"}, "logo.png", png)
	rec := h.do(http.MethodPost, "/admin/assets", admin, ct, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	out := decode[map[string]string](t, rec)
	if !strings.HasPrefix(out["url"], "/assets/logo/") {
		t.Fatalf("unexpected url %q", out["url"])
	}

	rec = h.do(http.MethodGet, out["url"], "", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), png) {
		t.Fatalf("download: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	ct, body = multipartBody(t, map[string]string{"kind": "logo"}, "x.html", []byte("<html><body>hi</body></html>"))
	if rec = h.do(http.MethodPost, "/admin/assets", admin, ct, body); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-image: expected 400, got %d", rec.Code)
	}
	if rec = h.do(http.MethodGet, "/assets/logo/missing.png", "", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing asset: expected 404, got %d", rec.Code)
	}
	if rec = h.send(http.MethodGet, "/admin/events", admin, nil); rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("events without journal: %d %s", rec.Code, rec.Body)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(http.MethodGet, "/healthz", "", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/readyz", "", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}

	store := kv.NewMemory()
	if err := store.Set(context.Background(), repository.KeySettings, "{broken"); err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Get("/readyz", api.ReadyHandler(session.New(repository.New(store))))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with corrupt settings: expected 503, got %d", rec.Code)
	}
}

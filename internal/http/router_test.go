package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/lecturehub/internal/auth"
	"github.com/geocoder89/lecturehub/internal/config"
	"github.com/geocoder89/lecturehub/internal/domain/user"
	httpx "github.com/geocoder89/lecturehub/internal/http"
	"github.com/geocoder89/lecturehub/internal/locks"
	"github.com/geocoder89/lecturehub/internal/observability"
	"github.com/geocoder89/lecturehub/internal/repo/memory"
	"github.com/geocoder89/lecturehub/internal/scheduling"
	"github.com/geocoder89/lecturehub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

type testServer struct {
	handler    http.Handler
	adminToken string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	hasher := security.NewHasher(4)
	jwt := auth.NewManager("test-secret", 15*time.Minute)

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	hash, err := hasher.Hash("admin-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin := user.New(user.RegisterRequest{Name: "Admin", Email: "admin@example.com", Phone: "5550100"}, hash)
	admin.Role = user.RoleAdmin
	if _, err := store.CreateUser(context.Background(), admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	directory := scheduling.NewCachedDirectory(store, time.Minute)
	svc := scheduling.NewService(directory, store,
		scheduling.WithLocker(locks.NewKeyedMutex()),
		scheduling.WithMetrics(prom),
		scheduling.WithLogger(log),
	)

	cfg := config.Config{
		Env:                "test",
		RateLimitPerMinute: 1000,
		MaxBodyBytes:       1 << 20,
		RequestTimeoutMs:   5000,
	}

	h := httpx.NewRouter(httpx.Deps{
		Log:       log,
		Cfg:       cfg,
		Store:     store,
		Scheduler: svc,
		JWT:       jwt,
		Hasher:    hasher,
		Prom:      prom,
		Gatherer:  reg,
		Cache:     directory,
	})

	ts := testServer{handler: h}

	var login struct {
		AccessToken string `json:"accessToken"`
	}
	ts.mustDo(t, http.MethodPost, "/user/login", "", `{"email":"admin@example.com","password":"admin-password"}`, http.StatusOK, &login)
	ts.adminToken = login.AccessToken
	return ts
}

func (ts testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts testServer) mustDo(t *testing.T, method, path, token, body string, want int, out any) {
	t.Helper()

	w := ts.do(method, path, token, body)
	if w.Code != want {
		t.Fatalf("%s %s: status = %d, want %d body=%s", method, path, w.Code, want, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func TestRouter_SchedulingFlow(t *testing.T) {
	ts := newTestServer(t)

	var reg struct {
		AccessToken string    `json:"accessToken"`
		User        user.User `json:"user"`
	}
	ts.mustDo(t, http.MethodPost, "/user/register", "",
		`{"name":"Grace","email":"grace@example.com","phone":"5550101","password":"instructor-pw"}`,
		http.StatusCreated, &reg)

	// only admins create courses
	courseBody := `{"poster":"p.png","title":"Distributed Systems","description":"consensus","mode":"online","level":"advanced","language":"en"}`
	ts.mustDo(t, http.MethodPost, "/course/create", reg.AccessToken, courseBody, http.StatusForbidden, nil)

	var c struct {
		ID string `json:"id"`
	}
	ts.mustDo(t, http.MethodPost, "/course/create", ts.adminToken, courseBody, http.StatusCreated, &c)

	assign := func(start, end string) string {
		return `{"courseId":"` + c.ID + `","instructorId":"` + reg.User.ID + `","topic":"Raft","start_time":"` + start + `","end_time":"` + end + `"}`
	}

	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken, assign("2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z"), http.StatusCreated, nil)
	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken, assign("2026-03-01T11:00:00Z", "2026-03-01T12:00:00Z"), http.StatusCreated, nil)
	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken, assign("2026-03-01T10:30:00Z", "2026-03-01T11:30:00Z"), http.StatusConflict, nil)
	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken, assign("2026-03-01T12:00:00Z", "2026-03-01T12:00:00Z"), http.StatusBadRequest, nil)
	ts.mustDo(t, http.MethodPost, "/lecture/assign", reg.AccessToken, assign("2026-03-02T10:00:00Z", "2026-03-02T11:00:00Z"), http.StatusForbidden, nil)

	var list struct {
		Data []struct {
			Topic  string `json:"topic"`
			Course struct {
				Title string `json:"title"`
				Level string `json:"level"`
			} `json:"course"`
		} `json:"data"`
		Count int `json:"count"`
	}
	ts.mustDo(t, http.MethodGet, "/lecture/get-assigned/"+reg.User.ID, reg.AccessToken, "", http.StatusOK, &list)
	if list.Count != 2 {
		t.Fatalf("count = %d, want 2", list.Count)
	}
	if list.Data[0].Course.Title != "Distributed Systems" || list.Data[0].Course.Level != "advanced" {
		t.Fatalf("course join missing: %+v", list.Data[0])
	}

	ts.mustDo(t, http.MethodGet, "/lecture/get/"+c.ID, ts.adminToken, "", http.StatusOK, nil)
	ts.mustDo(t, http.MethodGet, "/lecture/get/"+c.ID, reg.AccessToken, "", http.StatusForbidden, nil)
	ts.mustDo(t, http.MethodGet, "/lecture/gets", ts.adminToken, "", http.StatusOK, nil)
	ts.mustDo(t, http.MethodGet, "/lecture/gets", "", "", http.StatusUnauthorized, nil)

	var me user.User
	ts.mustDo(t, http.MethodGet, "/user/me", reg.AccessToken, "", http.StatusOK, &me)
	if me.ID != reg.User.ID || me.Role != user.RoleInstructor {
		t.Fatalf("unexpected me: %+v", me)
	}
}

func TestRouter_CourseLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var inst struct {
		AccessToken string    `json:"accessToken"`
		User        user.User `json:"user"`
	}
	ts.mustDo(t, http.MethodPost, "/user/register", "",
		`{"name":"Grace","email":"grace@example.com","phone":"5550101","password":"instructor-pw"}`,
		http.StatusCreated, &inst)

	courseBody := `{"poster":"p.png","title":"Compilers","description":"parsing","mode":"online","language":"en"}`
	var busy, idle struct {
		ID string `json:"id"`
	}
	ts.mustDo(t, http.MethodPost, "/course/create", ts.adminToken, courseBody, http.StatusCreated, &busy)
	ts.mustDo(t, http.MethodPost, "/course/create", ts.adminToken, courseBody, http.StatusCreated, &idle)

	ts.mustDo(t, http.MethodPut, "/course/update/"+busy.ID, inst.AccessToken, `{"title":"Compilers II"}`, http.StatusForbidden, nil)

	var updated struct {
		Title  string `json:"title"`
		Poster string `json:"poster"`
		UserID string `json:"userId"`
	}
	ts.mustDo(t, http.MethodPut, "/course/update/"+busy.ID, ts.adminToken, `{"title":"Compilers II","userId":"`+inst.User.ID+`"}`, http.StatusOK, &updated)
	if updated.Title != "Compilers II" || updated.Poster != "p.png" || updated.UserID == inst.User.ID {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	assign := func(courseID string) string {
		return `{"courseId":"` + courseID + `","instructorId":"` + inst.User.ID + `","topic":"LR parsing","start_time":"2026-03-01T10:00:00Z","end_time":"2026-03-01T11:00:00Z"}`
	}
	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken, assign(busy.ID), http.StatusCreated, nil)

	w := ts.do(http.MethodDelete, "/course/delete/"+busy.ID, ts.adminToken, "")
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), "course_in_use") {
		t.Fatalf("delete referenced course: status = %d body=%s", w.Code, w.Body.String())
	}
	ts.mustDo(t, http.MethodGet, "/course/"+busy.ID, "", "", http.StatusOK, nil)

	// warm the directory cache, then delete; assignment must see the course gone
	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken,
		strings.Replace(assign(idle.ID), "2026-03-01T1", "2026-03-02T1", 2), http.StatusCreated, nil)
	ts.mustDo(t, http.MethodDelete, "/course/delete/"+idle.ID, ts.adminToken, "", http.StatusConflict, nil)

	var fresh struct {
		ID string `json:"id"`
	}
	ts.mustDo(t, http.MethodPost, "/course/create", ts.adminToken, courseBody, http.StatusCreated, &fresh)
	ts.mustDo(t, http.MethodPost, "/lecture/assign", ts.adminToken, assign(fresh.ID), http.StatusConflict, nil)
	ts.mustDo(t, http.MethodDelete, "/course/delete/"+fresh.ID, ts.adminToken, "", http.StatusNoContent, nil)
	ts.mustDo(t, http.MethodDelete, "/course/delete/"+fresh.ID, ts.adminToken, "", http.StatusNotFound, nil)

	w = ts.do(http.MethodPost, "/lecture/assign", ts.adminToken,
		strings.Replace(assign(fresh.ID), "2026-03-01T1", "2026-03-05T1", 2))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "course_not_found") {
		t.Fatalf("assign to deleted course: status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestRouter_UserAdministration(t *testing.T) {
	ts := newTestServer(t)

	var grace, alan struct {
		AccessToken string    `json:"accessToken"`
		User        user.User `json:"user"`
	}
	ts.mustDo(t, http.MethodPost, "/user/register", "",
		`{"name":"Grace","email":"grace@example.com","phone":"5550101","password":"instructor-pw"}`, http.StatusCreated, &grace)
	ts.mustDo(t, http.MethodPost, "/user/register", "",
		`{"name":"Alan","email":"alan@example.com","phone":"5550102","password":"instructor-pw"}`, http.StatusCreated, &alan)

	var all struct {
		Count int `json:"count"`
	}
	ts.mustDo(t, http.MethodGet, "/user", ts.adminToken, "", http.StatusOK, &all)
	if all.Count != 3 {
		t.Fatalf("user count = %d, want 3", all.Count)
	}
	ts.mustDo(t, http.MethodGet, "/user", grace.AccessToken, "", http.StatusForbidden, nil)

	var found struct {
		Data []user.User `json:"data"`
	}
	ts.mustDo(t, http.MethodGet, "/user/q?name=GR", ts.adminToken, "", http.StatusOK, &found)
	if len(found.Data) != 1 || found.Data[0].ID != grace.User.ID {
		t.Fatalf("unexpected search result: %+v", found.Data)
	}
	ts.mustDo(t, http.MethodGet, "/user/q?name=zz", ts.adminToken, "", http.StatusNotFound, nil)

	ts.mustDo(t, http.MethodGet, "/user/"+grace.User.ID, grace.AccessToken, "", http.StatusOK, nil)
	ts.mustDo(t, http.MethodGet, "/user/"+grace.User.ID, alan.AccessToken, "", http.StatusForbidden, nil)
	ts.mustDo(t, http.MethodGet, "/user/me", grace.AccessToken, "", http.StatusOK, nil)

	ts.mustDo(t, http.MethodPut, "/user/update/"+grace.User.ID, alan.AccessToken, `{"city":"Cambridge"}`, http.StatusForbidden, nil)
	ts.mustDo(t, http.MethodPut, "/user/update/"+grace.User.ID, grace.AccessToken, `{"email":"alan@example.com"}`, http.StatusConflict, nil)

	var updated user.User
	ts.mustDo(t, http.MethodPut, "/user/update/"+grace.User.ID, grace.AccessToken, `{"city":"Arlington","role":"admin"}`, http.StatusOK, &updated)
	if updated.City == nil || *updated.City != "Arlington" || updated.Role != user.RoleInstructor {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	ts.mustDo(t, http.MethodGet, "/healthz", "", "", http.StatusOK, nil)
	ts.mustDo(t, http.MethodGet, "/readyz", "", "", http.StatusOK, nil)

	w := ts.do(http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "lecturehub_http_requests_total") {
		t.Fatalf("expected http metrics in /metrics output")
	}

	w = ts.do(http.MethodGet, "/healthz", "", "")
	if got := w.Header().Get("X-Request-Id"); got == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestRouter_RequireJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/lecture/assign", strings.NewReader("courseId=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+ts.adminToken)

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

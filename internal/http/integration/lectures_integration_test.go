package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/lecturehub/internal/auth"
	"github.com/geocoder89/lecturehub/internal/config"
	"github.com/geocoder89/lecturehub/internal/db"
	apphttp "github.com/geocoder89/lecturehub/internal/http"
	"github.com/geocoder89/lecturehub/internal/locks"
	"github.com/geocoder89/lecturehub/internal/redisclient"
	"github.com/geocoder89/lecturehub/internal/repo/postgres"
	"github.com/geocoder89/lecturehub/internal/scheduling"
	"github.com/geocoder89/lecturehub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		AdminEmail:          "admin@example.com",
		AdminPassword:       "admin-password",
		AdminName:           "Test Admin",
		AdminRole:           "admin",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		RateLimitPerMinute:  10000,
		MaxBodyBytes:        1 << 20,
		RequestTimeoutMs:    5000,
		LockTTLMs:           5000,
	}
}

// setupRouter wires the full stack against TEST_DB_DSN. When TEST_REDIS_ADDR
// is set the instructor lock goes through redis as in a multi-process deploy.
func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := testConfig()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	resetDB(t, pool)

	store := postgres.NewStore(pool, nil)
	hasher := security.NewHasher(4)

	if err := db.EnsureAdminUser(ctx, store, hasher, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	var locker locks.Locker = locks.NewKeyedMutex()
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		rdb := redisclient.New(redisclient.Config{Addr: addr})
		t.Cleanup(func() { _ = rdb.Close() })
		locker = locks.NewRedisLocker(logger, rdb.Raw(), "lecturehub:test:lock:", cfg.LockTTL())
	}

	svc := scheduling.NewService(store, store, scheduling.WithLocker(locker), scheduling.WithLogger(logger))

	router := apphttp.NewRouter(apphttp.Deps{
		Log:       logger,
		Cfg:       cfg,
		Store:     store,
		Scheduler: svc,
		JWT:       auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL()),
		Hasher:    hasher,
	})

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE lectures, courses, users
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// helpers

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/user/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, w.Code, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)
	return resp.AccessToken
}

type seeded struct {
	adminToken   string
	instructorID string
	courseID     string
}

func seed(t *testing.T, router http.Handler) seeded {
	t.Helper()

	adminToken := login(t, router, "admin@example.com", "admin-password")

	w := doRequest(router, http.MethodPost, "/user/register", "",
		`{"name":"Grace","email":"grace@example.com","phone":"5550101","password":"instructor-pw"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body=%s", w.Code, w.Body.String())
	}
	var reg tokenResponse
	mustReadJSON(t, w, &reg)

	w = doRequest(router, http.MethodPost, "/course/create", adminToken,
		`{"poster":"p.png","title":"Distributed Systems","description":"consensus","mode":"online","level":"advanced","language":"en"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create course: status %d body=%s", w.Code, w.Body.String())
	}
	var c struct {
		ID string `json:"id"`
	}
	mustReadJSON(t, w, &c)

	return seeded{adminToken: adminToken, instructorID: reg.User.ID, courseID: c.ID}
}

func (s seeded) assignBody(start, end string) string {
	return `{"courseId":"` + s.courseID + `","instructorId":"` + s.instructorID +
		`","topic":"Consensus","start_time":"` + start + `","end_time":"` + end + `"}`
}

func TestLectureAssignmentFlow_Postgres(t *testing.T) {
	router, _ := setupRouter(t)
	s := seed(t, router)

	cases := []struct {
		name       string
		start, end string
		want       int
	}{
		{"first", "2026-03-01T10:00:00Z", "2026-03-01T11:00:00Z", http.StatusCreated},
		{"back to back", "2026-03-01T11:00:00Z", "2026-03-01T12:00:00Z", http.StatusCreated},
		{"overlap", "2026-03-01T10:30:00Z", "2026-03-01T10:45:00Z", http.StatusConflict},
		{"reversed", "2026-03-01T15:00:00Z", "2026-03-01T14:00:00Z", http.StatusBadRequest},
	}

	for _, tc := range cases {
		w := doRequest(router, http.MethodPost, "/lecture/assign", s.adminToken, s.assignBody(tc.start, tc.end))
		if w.Code != tc.want {
			t.Fatalf("%s: status %d, want %d body=%s", tc.name, w.Code, tc.want, w.Body.String())
		}
	}

	w := doRequest(router, http.MethodGet, "/lecture/get/"+s.courseID, s.adminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("by course: status %d body=%s", w.Code, w.Body.String())
	}

	var list struct {
		Data []struct {
			StartTime time.Time `json:"start_time"`
			Course    struct {
				Title string `json:"title"`
			} `json:"course"`
		} `json:"data"`
		Count int `json:"count"`
	}
	mustReadJSON(t, w, &list)

	if list.Count != 2 {
		t.Fatalf("count = %d, want 2", list.Count)
	}
	if !list.Data[0].StartTime.Before(list.Data[1].StartTime) {
		t.Fatalf("lectures not ordered by start time")
	}
	if list.Data[0].Course.Title != "Distributed Systems" {
		t.Fatalf("course join missing: %+v", list.Data[0])
	}
}

func TestConcurrentAssignments_Postgres(t *testing.T) {
	router, pool := setupRouter(t)
	s := seed(t, router)

	const n = 10
	codes := make(chan int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doRequest(router, http.MethodPost, "/lecture/assign", s.adminToken,
				s.assignBody("2026-04-01T09:00:00Z", "2026-04-01T10:00:00Z"))
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)

	created, conflicts := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}

	if created != 1 || conflicts != n-1 {
		t.Fatalf("created=%d conflicts=%d, want 1 and %d", created, conflicts, n-1)
	}

	var stored int
	if err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM lectures WHERE instructor_id = $1`, s.instructorID).Scan(&stored); err != nil {
		t.Fatalf("count lectures: %v", err)
	}
	if stored != 1 {
		t.Fatalf("stored lectures = %d, want 1", stored)
	}
}

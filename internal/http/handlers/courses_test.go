package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/http/handlers"
)

type fakeCourses struct {
	createFn func(ctx context.Context, c course.Course) (course.Course, error)
	getFn    func(ctx context.Context, id string) (course.Course, error)
	listFn   func(ctx context.Context) ([]course.Course, error)
	updateFn func(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeCourses) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	return f.createFn(ctx, c)
}

func (f *fakeCourses) GetCourse(ctx context.Context, id string) (course.Course, error) {
	return f.getFn(ctx, id)
}

func (f *fakeCourses) ListCourses(ctx context.Context) ([]course.Course, error) {
	return f.listFn(ctx)
}

func (f *fakeCourses) UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error) {
	return f.updateFn(ctx, id, req)
}

func (f *fakeCourses) DeleteCourse(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

type recordingInvalidator struct {
	users, courses []string
}

func (r *recordingInvalidator) ForgetUser(id string)   { r.users = append(r.users, id) }
func (r *recordingInvalidator) ForgetCourse(id string) { r.courses = append(r.courses, id) }

func newCourseRouter(courses *fakeCourses) http.Handler {
	return newCourseRouterWithCache(courses, nil)
}

func newCourseRouterWithCache(courses *fakeCourses, inv handlers.CacheInvalidator) http.Handler {
	r, requireAuth := newTestEngine()
	h := handlers.NewCoursesHandler(courses, discardLogger()).WithInvalidator(inv)

	r.POST("/course/create", requireAuth, h.Create)
	r.PUT("/course/update/:id", requireAuth, h.Update)
	r.DELETE("/course/delete/:id", requireAuth, h.Delete)
	r.GET("/course/:id", h.GetByID)
	r.GET("/course", h.List)
	return r
}

func TestCreateCourse_OwnerIsCaller(t *testing.T) {
	courses := &fakeCourses{
		createFn: func(_ context.Context, c course.Course) (course.Course, error) {
			return c, nil
		},
	}

	body := `{"poster":"p.png","title":"  Distributed Systems ","description":"consensus","mode":"online","language":"en"}`
	w := doRequest(t, newCourseRouter(courses), http.MethodPost, "/course/create", "admin-1:admin", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 body=%s", w.Code, w.Body.String())
	}

	var got course.Course
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "admin-1" {
		t.Fatalf("owner = %q, want admin-1", got.UserID)
	}
	if got.Title != "Distributed Systems" || got.Level != course.DefaultLevel {
		t.Fatalf("unexpected course: %+v", got)
	}
}

func TestGetCourse(t *testing.T) {
	const id = "5a4a1c1e-1c1e-4c1e-8c1e-1c1e1c1e1c1e"

	courses := &fakeCourses{
		getFn: func(_ context.Context, got string) (course.Course, error) {
			if got != id {
				return course.Course{}, course.ErrNotFound
			}
			return course.Course{ID: id, Title: "Databases"}, nil
		},
	}
	r := newCourseRouter(courses)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"found", "/course/" + id, http.StatusOK},
		{"missing", "/course/6b5b2d2f-2d2f-4d2f-9d2f-2d2f2d2f2d2f", http.StatusNotFound},
		{"malformed", "/course/nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, r, http.MethodGet, tt.path, "", "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestListCourses(t *testing.T) {
	var items []course.Course
	courses := &fakeCourses{
		listFn: func(context.Context) ([]course.Course, error) { return items, nil },
	}
	r := newCourseRouter(courses)

	if w := doRequest(t, r, http.MethodGet, "/course", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("empty: status = %d, want 404", w.Code)
	}

	items = []course.Course{{ID: "c1"}, {ID: "c2"}}
	w := doRequest(t, r, http.MethodGet, "/course", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
}

func TestUpdateCourse(t *testing.T) {
	const id = "5a4a1c1e-1c1e-4c1e-8c1e-1c1e1c1e1c1e"

	tests := []struct {
		name     string
		path     string
		body     string
		updateFn func(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error)
		wantCode int
		wantErr  string
	}{
		{
			name: "partial",
			path: "/course/update/" + id,
			body: `{"title":"  Operating Systems ","level":"advanced"}`,
			updateFn: func(_ context.Context, got string, req course.UpdateCourseRequest) (course.Course, error) {
				if got != id {
					t.Errorf("id = %q", got)
				}
				if req.Poster != nil || req.Mode != nil {
					t.Errorf("unset fields were sent: %+v", req)
				}
				return req.Apply(course.Course{ID: id, Title: "old", Poster: "p.png", Level: course.DefaultLevel}), nil
			},
			wantCode: http.StatusOK,
		},
		{
			name: "non_whitelisted_only",
			path: "/course/update/" + id,
			body: `{"userId":"someone-else","createdAt":"2020-01-01T00:00:00Z"}`,
			updateFn: func(context.Context, string, course.UpdateCourseRequest) (course.Course, error) {
				t.Errorf("store must not be called")
				return course.Course{}, nil
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "invalid_field",
			path:     "/course/update/" + id,
			body:     `{"title":"ab"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "malformed_id",
			path:     "/course/update/nope",
			body:     `{"title":"Operating Systems"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name: "missing",
			path: "/course/update/" + id,
			body: `{"title":"Operating Systems"}`,
			updateFn: func(context.Context, string, course.UpdateCourseRequest) (course.Course, error) {
				return course.Course{}, course.ErrNotFound
			},
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name: "store_failure",
			path: "/course/update/" + id,
			body: `{"title":"Operating Systems"}`,
			updateFn: func(context.Context, string, course.UpdateCourseRequest) (course.Course, error) {
				return course.Course{}, errBoom
			},
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCourseRouter(&fakeCourses{updateFn: tt.updateFn})
			w := doRequest(t, r, http.MethodPut, tt.path, "admin-1:admin", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := decodeError(t, w).Error.Code; got != tt.wantErr {
					t.Fatalf("code = %q, want %q", got, tt.wantErr)
				}
				return
			}

			var got course.Course
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Title != "Operating Systems" || got.Level != "advanced" || got.Poster != "p.png" {
				t.Fatalf("unexpected course: %+v", got)
			}
		})
	}
}

func TestDeleteCourse(t *testing.T) {
	const id = "5a4a1c1e-1c1e-4c1e-8c1e-1c1e1c1e1c1e"

	tests := []struct {
		name      string
		path      string
		err       error
		wantCode  int
		wantErr   string
		forgotten bool
	}{
		{name: "deleted", path: "/course/delete/" + id, wantCode: http.StatusNoContent, forgotten: true},
		{name: "has_lectures", path: "/course/delete/" + id, err: course.ErrInUse, wantCode: http.StatusConflict, wantErr: "course_in_use"},
		{name: "missing", path: "/course/delete/" + id, err: course.ErrNotFound, wantCode: http.StatusNotFound, wantErr: "not_found"},
		{name: "store_failure", path: "/course/delete/" + id, err: errBoom, wantCode: http.StatusInternalServerError, wantErr: "internal_error"},
		{name: "malformed_id", path: "/course/delete/nope", wantCode: http.StatusBadRequest, wantErr: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &recordingInvalidator{}
			courses := &fakeCourses{deleteFn: func(context.Context, string) error { return tt.err }}

			w := doRequest(t, newCourseRouterWithCache(courses, inv), http.MethodDelete, tt.path, "admin-1:admin", "")
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d body=%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := decodeError(t, w).Error.Code; got != tt.wantErr {
					t.Fatalf("code = %q, want %q", got, tt.wantErr)
				}
			}
			if forgot := len(inv.courses) == 1 && inv.courses[0] == id; forgot != tt.forgotten {
				t.Fatalf("cache invalidations = %v, want forgotten=%v", inv.courses, tt.forgotten)
			}
		})
	}
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
)

// Store keeps users, courses and lectures in maps. It is the default backend for
// local runs and the fixture for service tests.
type Store struct {
	mu sync.RWMutex

	users        map[string]user.User // {"id": user}
	emails       map[string]string    // lower-cased email -> id
	courses      map[string]course.Course
	lectures     map[string]lecture.Lecture
	byInstructor map[string][]string // instructor id -> lecture ids
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]user.User),
		emails:       make(map[string]string),
		courses:      make(map[string]course.Course),
		lectures:     make(map[string]lecture.Lecture),
		byInstructor: make(map[string][]string),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// users

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	key := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[key]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	s.users[u.ID] = u
	s.emails[key] = u.ID
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	oldKey := strings.ToLower(u.Email)
	u = req.Apply(u)
	newKey := strings.ToLower(u.Email)
	if newKey != oldKey {
		if _, taken := s.emails[newKey]; taken {
			return user.User{}, user.ErrEmailTaken
		}
		delete(s.emails, oldKey)
		s.emails[newKey] = id
	}

	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.filterUsers(func(user.User) bool { return true }), nil
}

func (s *Store) SearchUsers(ctx context.Context, namePrefix string) ([]user.User, error) {
	prefix := strings.ToLower(namePrefix)
	return s.filterUsers(func(u user.User) bool {
		return strings.HasPrefix(strings.ToLower(u.Name), prefix)
	}), nil
}

func (s *Store) filterUsers(keep func(user.User) bool) []user.User {
	s.mu.RLock()
	out := make([]user.User, 0)
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// courses

func (s *Store) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	s.mu.Lock()
	s.courses[c.ID] = c
	s.mu.Unlock()

	return c, nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]course.Course, error) {
	s.mu.RLock()
	out := make([]course.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CourseExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	_, ok := s.courses[id]
	s.mu.RUnlock()

	return ok, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id string, req course.UpdateCourseRequest) (course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	c = req.Apply(c)
	c.UpdatedAt = time.Now().UTC()
	s.courses[id] = c
	return c, nil
}

// DeleteCourse scans lectures under the write lock, so a concurrent Create
// cannot attach to a course that is being removed.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return course.ErrNotFound
	}
	for _, l := range s.lectures {
		if l.CourseID == id {
			return course.ErrInUse
		}
	}

	delete(s.courses, id)
	return nil
}

// lectures

func (s *Store) HasOverlap(ctx context.Context, instructorID string, iv lecture.Interval) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.overlapLocked(instructorID, iv), nil
}

func (s *Store) overlapLocked(instructorID string, iv lecture.Interval) bool {
	for _, id := range s.byInstructor[instructorID] {
		if s.lectures[id].Interval().Overlaps(iv) {
			return true
		}
	}
	return false
}

// Create re-checks overlap and referential existence under the write lock, so it
// is safe even without an outer per-instructor lock.
func (s *Store) Create(ctx context.Context, l lecture.Lecture) (lecture.Lecture, error) {
	if err := ctx.Err(); err != nil {
		return lecture.Lecture{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[l.CourseID]; !ok {
		return lecture.Lecture{}, lecture.ErrCourseNotFound
	}
	if u, ok := s.users[l.InstructorID]; !ok || !u.IsInstructor() {
		return lecture.Lecture{}, lecture.ErrInstructorNotFound
	}
	if s.overlapLocked(l.InstructorID, l.Interval()) {
		return lecture.Lecture{}, lecture.ErrConflict
	}

	s.lectures[l.ID] = l
	s.byInstructor[l.InstructorID] = append(s.byInstructor[l.InstructorID], l.ID)
	return l, nil
}

func (s *Store) List(ctx context.Context, filter lecture.ListFilter) ([]lecture.Enriched, error) {
	s.mu.RLock()
	out := make([]lecture.Enriched, 0)
	for _, l := range s.lectures {
		if !filter.Matches(l) {
			continue
		}

		e := lecture.Enriched{Lecture: l}
		if c, ok := s.courses[l.CourseID]; ok {
			c := c
			e.Course = &c
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sortEnriched(out)
	return out, nil
}

func sortEnriched(items []lecture.Enriched) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].StartTime.Before(items[j].StartTime)
		}
		return items[i].ID < items[j].ID
	})
}

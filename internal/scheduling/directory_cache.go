package scheduling

import (
	"context"
	"time"

	"github.com/geocoder89/lecturehub/internal/cache"
	"github.com/geocoder89/lecturehub/internal/domain/user"
)

// CachedDirectory remembers positive lookups for a short while. Roles are fixed
// at registration, so a cached user's role cannot go stale. Misses are never
// cached so a freshly created course or instructor is visible at once. Writers
// that change or remove an entry call ForgetUser/ForgetCourse.
type CachedDirectory struct {
	next    Directory
	users   *cache.Cache[user.User]
	courses *cache.Cache[struct{}]
}

func NewCachedDirectory(next Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:    next,
		users:   cache.New[user.User](ttl),
		courses: cache.New[struct{}](ttl),
	}
}

func (d *CachedDirectory) GetUser(ctx context.Context, id string) (user.User, error) {
	if u, ok := d.users.Get(id); ok {
		return u, nil
	}

	u, err := d.next.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	d.users.Set(id, u)
	return u, nil
}

func (d *CachedDirectory) CourseExists(ctx context.Context, id string) (bool, error) {
	if _, ok := d.courses.Get(id); ok {
		return true, nil
	}

	ok, err := d.next.CourseExists(ctx, id)
	if err != nil || !ok {
		return ok, err
	}

	d.courses.Set(id, struct{}{})
	return true, nil
}

func (d *CachedDirectory) ForgetUser(id string) { d.users.Delete(id) }

func (d *CachedDirectory) ForgetCourse(id string) { d.courses.Delete(id) }

package mongo

import (
	"time"

	"github.com/geocoder89/lecturehub/internal/domain/course"
	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/geocoder89/lecturehub/internal/domain/user"
)

type userDoc struct {
	ID                   string    `bson:"_id"`
	Name                 string    `bson:"name"`
	Email                string    `bson:"email"`
	Phone                string    `bson:"phone"`
	PasswordHash         string    `bson:"passwordHash"`
	Role                 string    `bson:"role"`
	Gender               *string   `bson:"gender,omitempty"`
	City                 *string   `bson:"city,omitempty"`
	HighestQualification *string   `bson:"highestQualification,omitempty"`
	PreferredLanguage    *string   `bson:"preferredLanguage,omitempty"`
	CreatedAt            time.Time `bson:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt"`
}

func fromUser(u user.User) userDoc {
	return userDoc{
		ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, PasswordHash: u.PasswordHash, Role: u.Role,
		Gender: u.Gender, City: u.City, HighestQualification: u.HighestQualification, PreferredLanguage: u.PreferredLanguage,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) toUser() user.User {
	return user.User{
		ID: d.ID, Name: d.Name, Email: d.Email, Phone: d.Phone, PasswordHash: d.PasswordHash, Role: d.Role,
		Gender: d.Gender, City: d.City, HighestQualification: d.HighestQualification, PreferredLanguage: d.PreferredLanguage,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type courseDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"userId"`
	Poster      string    `bson:"poster"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Mode        string    `bson:"mode"`
	Level       string    `bson:"level"`
	Language    string    `bson:"language"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func fromCourse(c course.Course) courseDoc {
	return courseDoc{
		ID: c.ID, UserID: c.UserID, Poster: c.Poster, Title: c.Title, Description: c.Description,
		Mode: c.Mode, Level: c.Level, Language: c.Language, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func (d courseDoc) toCourse() course.Course {
	return course.Course{
		ID: d.ID, UserID: d.UserID, Poster: d.Poster, Title: d.Title, Description: d.Description,
		Mode: d.Mode, Level: d.Level, Language: d.Language, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type lectureDoc struct {
	ID           string    `bson:"_id"`
	CourseID     string    `bson:"courseId"`
	InstructorID string    `bson:"instructorId"`
	Topic        string    `bson:"topic"`
	StartTime    time.Time `bson:"startTime"`
	EndTime      time.Time `bson:"endTime"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`

	// filled by the $lookup stage in List
	CourseData []courseDoc `bson:"courseData,omitempty"`
}

func fromLecture(l lecture.Lecture) lectureDoc {
	return lectureDoc{
		ID: l.ID, CourseID: l.CourseID, InstructorID: l.InstructorID, Topic: l.Topic,
		StartTime: l.StartTime, EndTime: l.EndTime, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func (d lectureDoc) toEnriched() lecture.Enriched {
	e := lecture.Enriched{Lecture: lecture.Lecture{
		ID: d.ID, CourseID: d.CourseID, InstructorID: d.InstructorID, Topic: d.Topic,
		StartTime: d.StartTime.UTC(), EndTime: d.EndTime.UTC(), CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}}
	if len(d.CourseData) > 0 {
		c := d.CourseData[0].toCourse()
		e.Course = &c
	}
	return e
}

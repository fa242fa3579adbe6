package postgres

import (
	"errors"

	"github.com/geocoder89/lecturehub/internal/domain/lecture"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	constraintNoOverlap         = "lectures_instructor_no_overlap"
	constraintEndAfterStart     = "lectures_end_after_start"
	constraintLectureCourse     = "lectures_course_id_fkey"
	constraintLectureInstructor = "lectures_instructor_id_fkey"
	constraintUsersEmail        = "users_email_uniq"
)

// lectureWriteErr maps constraint violations raised by a lecture insert onto
// domain errors. Unknown errors pass through unchanged.
func lectureWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23P01": // exclusion_violation
		return lecture.ErrConflict
	case "23503": // foreign_key_violation
		if pgErr.ConstraintName == constraintLectureInstructor {
			return lecture.ErrInstructorNotFound
		}
		return lecture.ErrCourseNotFound
	case "23514": // check_violation
		return &lecture.ValidationError{Reason: "rejected by " + pgErr.ConstraintName}
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503" && pgErr.ConstraintName == constraint
}

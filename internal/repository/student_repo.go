package repository

import (
	"context"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type StudentRepository struct {
	db DBTX
}

func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, tutor_id, first_name, last_name, email, phone, school, grade, subjects, notes, created_at, updated_at`

func scanStudent(row interface{ Scan(dest ...any) error }, student *models.Student) error {
	return row.Scan(
		&student.ID,
		&student.TutorID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Phone,
		&student.School,
		&student.Grade,
		&student.Subjects,
		&student.Notes,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (tutor_id, first_name, last_name, email, phone, school, grade, subjects, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		student.TutorID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Phone,
		student.School,
		student.Grade,
		student.Subjects,
		student.Notes,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt)
}

func (r *StudentRepository) GetByID(ctx context.Context, tutorID, studentID int64) (*models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE id = $1 AND tutor_id = $2
	`
	var student models.Student
	if err := scanStudent(r.db.QueryRow(ctx, query, studentID, tutorID), &student); err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) ListByTutor(ctx context.Context, tutorID int64) ([]models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE tutor_id = $1
		ORDER BY last_name ASC, first_name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]models.Student, 0)
	for rows.Next() {
		var student models.Student
		if err := scanStudent(rows, &student); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := `
		UPDATE students
		SET first_name = $3, last_name = $4, email = $5, phone = $6, school = $7,
		    grade = $8, subjects = $9, notes = $10, updated_at = NOW()
		WHERE id = $1 AND tutor_id = $2
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		student.ID,
		student.TutorID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Phone,
		student.School,
		student.Grade,
		student.Subjects,
		student.Notes,
	).Scan(&student.UpdatedAt)
}

func (r *StudentRepository) Delete(ctx context.Context, tutorID, studentID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1 AND tutor_id = $2`, studentID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

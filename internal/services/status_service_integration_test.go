package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

// Fixture lessons live far in the past and every run passes an explicit
// cutoff from the same era, so rows created by other tests never fall
// inside the sweep window and the returned counts stay deterministic.

func TestStatusServiceSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := NewStatusService(pool)

	tutorID, contractID := createTestTutorWithContract(t, ctx, pool)
	t.Cleanup(func() { cleanupTestTutors(t, ctx, pool, tutorID) })

	cutoff := time.Date(2001, 4, 1, 0, 0, 0, 0, time.UTC)
	ended := createTestLesson(t, ctx, pool, tutorID, contractID,
		cutoff.Add(-2*time.Hour), models.LessonStatusPlanned)
	// Ends exactly at the cutoff: 60 minutes starting one hour before.
	endsAtCutoff := createTestLesson(t, ctx, pool, tutorID, contractID,
		cutoff.Add(-time.Hour), models.LessonStatusPlanned)
	cancelled := createTestLesson(t, ctx, pool, tutorID, contractID,
		cutoff.Add(-3*time.Hour), models.LessonStatusCancelled)

	updated, err := service.UpdatePastLessonsToTaught(ctx, &cutoff)
	if err != nil {
		t.Fatalf("UpdatePastLessonsToTaught: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated lesson, got %d", updated)
	}

	assertLessonStatus(t, ctx, pool, tutorID, ended, models.LessonStatusTaught)
	assertLessonStatus(t, ctx, pool, tutorID, endsAtCutoff, models.LessonStatusPlanned)
	assertLessonStatus(t, ctx, pool, tutorID, cancelled, models.LessonStatusCancelled)

	again, err := service.UpdatePastLessonsToTaught(ctx, &cutoff)
	if err != nil {
		t.Fatalf("second UpdatePastLessonsToTaught: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected rerun to update nothing, got %d", again)
	}
	assertLessonStatus(t, ctx, pool, tutorID, ended, models.LessonStatusTaught)
}

func TestStatusServiceConcurrentSweepsUpdateEachLessonOnce(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := NewStatusService(pool)

	tutorID, contractID := createTestTutorWithContract(t, ctx, pool)
	t.Cleanup(func() { cleanupTestTutors(t, ctx, pool, tutorID) })

	cutoff := time.Date(2001, 3, 1, 0, 0, 0, 0, time.UTC)
	lessonIDs := make([]int64, 0, 4)
	for i := 0; i < 4; i++ {
		id := createTestLesson(t, ctx, pool, tutorID, contractID,
			cutoff.Add(time.Duration(-2*(i+1))*time.Hour), models.LessonStatusPlanned)
		lessonIDs = append(lessonIDs, id)
	}

	counts := make([]int, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i], errs[i] = service.UpdatePastLessonsToTaught(ctx, &cutoff)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent run %d: %v", i, err)
		}
	}
	if total := counts[0] + counts[1]; total != len(lessonIDs) {
		t.Fatalf("expected %d updates across both runs, got %d (%v)", len(lessonIDs), total, counts)
	}
	for _, id := range lessonIDs {
		assertLessonStatus(t, ctx, pool, tutorID, id, models.LessonStatusTaught)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func createTestTutorWithContract(t *testing.T, ctx context.Context, pool *pgxpool.Pool) (tutorID, contractID int64) {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	tutor := &models.User{
		Email:        fmt.Sprintf("status-test-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		DisplayName:  "Status Test Tutor",
		Role:         models.RoleTutor,
	}
	if err := userRepo.Create(ctx, tutor); err != nil {
		t.Fatalf("create tutor: %v", err)
	}

	studentRepo := repository.NewStudentRepository(pool)
	student := &models.Student{
		TutorID:   tutor.ID,
		FirstName: "Status",
		LastName:  "Testschueler",
	}
	if err := studentRepo.Create(ctx, student); err != nil {
		t.Fatalf("create student: %v", err)
	}

	contractRepo := repository.NewContractRepository(pool)
	contract := &models.Contract{
		TutorID:             tutor.ID,
		StudentID:           student.ID,
		HourlyRate:          30,
		UnitDurationMinutes: 60,
		StartDate:           time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:            true,
	}
	if err := contractRepo.Create(ctx, contract); err != nil {
		t.Fatalf("create contract: %v", err)
	}

	return tutor.ID, contract.ID
}

func createTestLesson(t *testing.T, ctx context.Context, pool *pgxpool.Pool, tutorID, contractID int64, startsAt time.Time, status string) int64 {
	t.Helper()

	lessonRepo := repository.NewLessonRepository(pool)
	lesson := &models.Lesson{
		TutorID:         tutorID,
		ContractID:      contractID,
		StartsAt:        startsAt,
		DurationMinutes: 60,
		Status:          status,
	}
	if err := lessonRepo.Create(ctx, lesson); err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return lesson.ID
}

func assertLessonStatus(t *testing.T, ctx context.Context, pool *pgxpool.Pool, tutorID, lessonID int64, want string) {
	t.Helper()

	lesson, err := repository.NewLessonRepository(pool).GetByID(ctx, tutorID, lessonID)
	if err != nil {
		t.Fatalf("load lesson %d: %v", lessonID, err)
	}
	if lesson.Status != want {
		t.Fatalf("lesson %d: expected status %q, got %q", lessonID, want, lesson.Status)
	}
}

func cleanupTestTutors(t *testing.T, ctx context.Context, pool *pgxpool.Pool, tutorIDs ...int64) {
	t.Helper()

	if len(tutorIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM lessons WHERE tutor_id = ANY($1)", tutorIDs); err != nil {
		t.Fatalf("cleanup lessons: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM contracts WHERE tutor_id = ANY($1)", tutorIDs); err != nil {
		t.Fatalf("cleanup contracts: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM students WHERE tutor_id = ANY($1)", tutorIDs); err != nil {
		t.Fatalf("cleanup students: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", tutorIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}

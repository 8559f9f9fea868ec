package repository

import (
	"context"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type ContractRepository struct {
	db DBTX
}

func NewContractRepository(db DBTX) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = `id, tutor_id, student_id, institute, hourly_rate, unit_duration_minutes, start_date, end_date, is_active, notes, created_at, updated_at`

func scanContract(row interface{ Scan(dest ...any) error }, contract *models.Contract) error {
	return row.Scan(
		&contract.ID,
		&contract.TutorID,
		&contract.StudentID,
		&contract.Institute,
		&contract.HourlyRate,
		&contract.UnitDurationMinutes,
		&contract.StartDate,
		&contract.EndDate,
		&contract.IsActive,
		&contract.Notes,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
}

func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (tutor_id, student_id, institute, hourly_rate, unit_duration_minutes, start_date, end_date, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		contract.TutorID,
		contract.StudentID,
		contract.Institute,
		contract.HourlyRate,
		contract.UnitDurationMinutes,
		contract.StartDate,
		contract.EndDate,
		contract.IsActive,
		contract.Notes,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)
}

func (r *ContractRepository) GetByID(ctx context.Context, tutorID, contractID int64) (*models.Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE id = $1 AND tutor_id = $2
	`
	var contract models.Contract
	if err := scanContract(r.db.QueryRow(ctx, query, contractID, tutorID), &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) ListByTutor(ctx context.Context, tutorID int64) ([]models.Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE tutor_id = $1
		ORDER BY start_date DESC, id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]models.Contract, 0)
	for rows.Next() {
		var contract models.Contract
		if err := scanContract(rows, &contract); err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	return contracts, rows.Err()
}

func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	query := `
		UPDATE contracts
		SET institute = $3, hourly_rate = $4, unit_duration_minutes = $5, start_date = $6,
		    end_date = $7, is_active = $8, notes = $9, updated_at = NOW()
		WHERE id = $1 AND tutor_id = $2
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		contract.ID,
		contract.TutorID,
		contract.Institute,
		contract.HourlyRate,
		contract.UnitDurationMinutes,
		contract.StartDate,
		contract.EndDate,
		contract.IsActive,
		contract.Notes,
	).Scan(&contract.UpdatedAt)
}

func (r *ContractRepository) Delete(ctx context.Context, tutorID, contractID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE id = $1 AND tutor_id = $2`, contractID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertMonthlyPlan creates or replaces the planned unit count for one
// contract month.
func (r *ContractRepository) UpsertMonthlyPlan(ctx context.Context, plan *models.ContractMonthlyPlan) error {
	query := `
		INSERT INTO contract_monthly_plans (contract_id, year, month, planned_units)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (contract_id, year, month)
		DO UPDATE SET planned_units = EXCLUDED.planned_units, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, plan.ContractID, plan.Year, plan.Month, plan.PlannedUnits).
		Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

func (r *ContractRepository) GetMonthlyPlan(ctx context.Context, contractID int64, year, month int) (*models.ContractMonthlyPlan, error) {
	query := `
		SELECT id, contract_id, year, month, planned_units, created_at, updated_at
		FROM contract_monthly_plans
		WHERE contract_id = $1 AND year = $2 AND month = $3
	`
	var plan models.ContractMonthlyPlan
	err := r.db.QueryRow(ctx, query, contractID, year, month).
		Scan(&plan.ID, &plan.ContractID, &plan.Year, &plan.Month, &plan.PlannedUnits, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *ContractRepository) ListMonthlyPlans(ctx context.Context, contractID int64) ([]models.ContractMonthlyPlan, error) {
	query := `
		SELECT id, contract_id, year, month, planned_units, created_at, updated_at
		FROM contract_monthly_plans
		WHERE contract_id = $1
		ORDER BY year ASC, month ASC
	`
	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.ContractMonthlyPlan, 0)
	for rows.Next() {
		var plan models.ContractMonthlyPlan
		if err := rows.Scan(&plan.ID, &plan.ContractID, &plan.Year, &plan.Month, &plan.PlannedUnits, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// MonthlyPlanWithRate pairs a monthly plan with its contract's rate for
// the planned-vs-actual report.
type MonthlyPlanWithRate struct {
	models.ContractMonthlyPlan
	HourlyRate float64
}

func (r *ContractRepository) ListMonthlyPlansForMonth(ctx context.Context, tutorID int64, year, month int) ([]MonthlyPlanWithRate, error) {
	query := `
		SELECT p.id, p.contract_id, p.year, p.month, p.planned_units, p.created_at, p.updated_at, c.hourly_rate
		FROM contract_monthly_plans p
		JOIN contracts c ON c.id = p.contract_id
		WHERE c.tutor_id = $1 AND p.year = $2 AND p.month = $3
		ORDER BY p.contract_id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]MonthlyPlanWithRate, 0)
	for rows.Next() {
		var plan MonthlyPlanWithRate
		if err := rows.Scan(&plan.ID, &plan.ContractID, &plan.Year, &plan.Month, &plan.PlannedUnits, &plan.CreatedAt, &plan.UpdatedAt, &plan.HourlyRate); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

package labreport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, patient_id, doctor_id, lab_technician_id, test_name, test_type,
	date, status, results, notes, reference_range, units, file_url,
	test_parameters, is_normal, priority, completed_at, created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.PatientID, &rep.DoctorID, &rep.LabTechnicianID,
		&rep.TestName, &rep.TestType, &rep.Date, &rep.Status,
		&rep.Results, &rep.Notes, &rep.ReferenceRange, &rep.Units, &rep.FileURL,
		&rep.TestParameters, &rep.IsNormal, &rep.Priority,
		&rep.CompletedAt, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_report (id, patient_id, doctor_id, lab_technician_id, test_name, test_type,
			date, status, results, notes, reference_range, units, file_url,
			test_parameters, is_normal, priority, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		rep.ID, rep.PatientID, rep.DoctorID, rep.LabTechnicianID, rep.TestName, rep.TestType,
		rep.Date, rep.Status, rep.Results, rep.Notes, rep.ReferenceRange, rep.Units, rep.FileURL,
		rep.TestParameters, rep.IsNormal, rep.Priority, rep.CompletedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM lab_report WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_report SET lab_technician_id=$2, status=$3, results=$4, notes=$5,
			reference_range=$6, units=$7, file_url=$8, test_parameters=$9,
			is_normal=$10, priority=$11, completed_at=$12, updated_at=NOW()
		WHERE id = $1`,
		rep.ID, rep.LabTechnicianID, rep.Status, rep.Results, rep.Notes,
		rep.ReferenceRange, rep.Units, rep.FileURL, rep.TestParameters,
		rep.IsNormal, rep.Priority, rep.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListPendingUnassigned(ctx context.Context) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM lab_report
		WHERE status = $1 AND lab_technician_id IS NULL
		ORDER BY date`, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

func (r *repoPG) ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM lab_report
		WHERE lab_technician_id = $1 ORDER BY date DESC`, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM lab_report
		WHERE patient_id = $1 ORDER BY date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

func (r *repoPG) AttachToPatient(ctx context.Context, patientID, reportID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_lab_report (patient_id, lab_report_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, patientID, reportID)
	return err
}

func (r *repoPG) CountDistinctPatients(ctx context.Context, technicianID uuid.UUID, from, to time.Time) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(DISTINCT patient_id) FROM lab_report
		WHERE lab_technician_id = $1 AND status = $2
		  AND completed_at >= $3 AND completed_at < $4`,
		technicianID, StatusCompleted, from, to).Scan(&count)
	return count, err
}

func collectReports(rows pgx.Rows) ([]*Report, error) {
	var items []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, rows.Err()
}

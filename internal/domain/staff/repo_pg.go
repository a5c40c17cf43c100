package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/auth"
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

const accountCols = `id, username, email, password_hash, name, contact_number,
	specialization, experience, role, is_approved, status,
	registration_date, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role string
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Name, &a.ContactNumber,
		&a.Specialization, &a.Experience, &role, &a.IsApproved, &a.Status,
		&a.RegistrationDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Older rows carry the "Lab Technician" spelling.
	if parsed, ok := auth.ParseRole(role); ok {
		a.Role = parsed
	} else {
		a.Role = auth.Role(role)
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_account (id, username, email, password_hash, name, contact_number,
			specialization, experience, role, is_approved, status, registration_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Name, a.ContactNumber,
		a.Specialization, a.Experience, string(a.Role), a.IsApproved, a.Status, a.RegistrationDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM staff_account WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM staff_account WHERE email = $1`, email))
}

func (r *repoPG) GetByEmailAndRole(ctx context.Context, email string, role auth.Role) (*Account, error) {
	// Match both canonical and historical role spellings.
	return scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM staff_account
		 WHERE email = $1 AND REPLACE(role, ' ', '') = REPLACE($2, ' ', '')`,
		email, string(role)))
}

func (r *repoPG) FindTaken(ctx context.Context, email, contact string) (bool, bool, error) {
	var emailTaken, contactTaken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM staff_account WHERE email = $1),
			EXISTS (SELECT 1 FROM staff_account WHERE contact_number = $2 AND contact_number <> '')`,
		email, contact).Scan(&emailTaken, &contactTaken)
	return emailTaken, contactTaken, err
}

func (r *repoPG) ListByRole(ctx context.Context, role auth.Role) ([]*Account, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+accountCols+` FROM staff_account
		WHERE REPLACE(role, ' ', '') = REPLACE($1, ' ', '')
		ORDER BY created_at`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListPending(ctx context.Context) ([]*Account, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+accountCols+` FROM staff_account
		WHERE status = $1 ORDER BY registration_date`, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) SetApproval(ctx context.Context, id uuid.UUID, approved bool, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_account SET is_approved = $2, status = $3, updated_at = NOW()
		WHERE id = $1`, id, approved, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]*Account, error) {
	var items []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/happyshelf/backend/internal/models"
)

// PostgresStore is the relational backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email         VARCHAR(255) UNIQUE NOT NULL,
			name          VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS inventory_items (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id     UUID NOT NULL REFERENCES users(id),
			name        VARCHAR(255) NOT NULL,
			category    VARCHAR(255) NOT NULL,
			quantity    INTEGER NOT NULL CHECK (quantity >= 0),
			daily_usage DOUBLE PRECISION NOT NULL CHECK (daily_usage >= 0),
			expiry_date TIMESTAMPTZ,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_inventory_items_user_id ON inventory_items (user_id)
	`)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// A client-supplied id that is not a UUID can never match a row, so it is
// treated as not-found rather than handed to Postgres as a cast error.
func validID(ids ...string) bool {
	for _, id := range ids {
		if uuid.Validate(id) != nil {
			return false
		}
	}
	return true
}

func (s *PostgresStore) CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, name, password_hash, created_at, updated_at`,
		email, name, passwordHash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

const itemColumns = `id, user_id, name, category, quantity, daily_usage, expiry_date, created_at, updated_at`

func scanItem(row pgx.Row) (*models.InventoryItem, error) {
	var it models.InventoryItem
	err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Category,
		&it.Quantity, &it.DailyUsage, &it.ExpiryDate, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *PostgresStore) FindByOwner(ctx context.Context, ownerID string) ([]models.InventoryItem, error) {
	if !validID(ownerID) {
		return []models.InventoryItem{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM inventory_items
		 WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) FindOneScoped(ctx context.Context, id, ownerID string) (*models.InventoryItem, error) {
	if !validID(id, ownerID) {
		return nil, ErrNotFound
	}
	it, err := scanItem(s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM inventory_items
		 WHERE id = $1 AND user_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) Insert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	it, err := scanItem(s.pool.QueryRow(ctx,
		`INSERT INTO inventory_items (user_id, name, category, quantity, daily_usage, expiry_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+itemColumns,
		item.UserID, item.Name, item.Category, item.Quantity, item.DailyUsage, item.ExpiryDate))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) UpdateScoped(ctx context.Context, id, ownerID string, patch ItemPatch) (*models.InventoryItem, error) {
	if !validID(id, ownerID) {
		return nil, ErrNotFound
	}

	set := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	add := func(col string, val any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.DailyUsage != nil {
		add("daily_usage", *patch.DailyUsage)
	}
	if patch.SetExpiry {
		add("expiry_date", patch.ExpiryDate)
	}
	args = append(args, id, ownerID)

	query := fmt.Sprintf(
		`UPDATE inventory_items SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(set, ", "), n, n+1, itemColumns)

	it, err := scanItem(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

func (s *PostgresStore) DeleteScoped(ctx context.Context, id, ownerID string) error {
	if !validID(id, ownerID) {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM inventory_items WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// interface conformance
var (
	_ UserStore = (*PostgresStore)(nil)
	_ ItemStore = (*PostgresStore)(nil)
	_ UserStore = (*MongoStore)(nil)
	_ ItemStore = (*MongoStore)(nil)
	_ UserStore = (*MemoryStore)(nil)
	_ ItemStore = (*MemoryStore)(nil)
)

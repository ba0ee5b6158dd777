package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/emberfall/server/internal/account"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepo is the Postgres account.Store.
type AccountRepo struct {
	db   *DB
	ids  account.IDs
	cost int
}

func NewAccountRepo(db *DB, ids account.IDs, cost int) *AccountRepo {
	return &AccountRepo{db: db, ids: ids, cost: cost}
}

var _ account.Store = (*AccountRepo)(nil)

func (r *AccountRepo) Create(ctx context.Context, name, password string) (*account.Account, error) {
	name, err := account.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id := r.ids.AllocAccountID()
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (id, name, password_hash, last_active)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (name) DO NOTHING`,
		int64(id), name, string(hash),
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, account.ErrNameTaken
	}
	return &account.Account{ID: id, Name: name}, nil
}

func (r *AccountRepo) Login(ctx context.Context, name, password string) (*account.Account, error) {
	name, err := account.NormalizeName(name)
	if err != nil {
		return nil, account.ErrInvalidCredentials
	}
	var (
		id   int64
		hash string
	)
	err = r.db.Pool.QueryRow(ctx,
		`SELECT id, password_hash FROM accounts WHERE name = $1`, name,
	).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, account.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, account.ErrInvalidCredentials
	}

	if _, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_active = NOW() WHERE id = $1`, id,
	); err != nil {
		r.db.log.Warn("update last_active failed")
	}

	chars, err := r.Characters(ctx, uint64(id))
	if err != nil {
		return nil, err
	}
	return &account.Account{ID: uint64(id), Name: name, Characters: chars}, nil
}

func (r *AccountRepo) AddCharacter(ctx context.Context, accountID uint64, ref account.CharacterRef) error {
	name, err := account.NormalizeName(ref.Name)
	if err != nil {
		return err
	}
	tag, err := r.db.Pool.Exec(ctx,
		`INSERT INTO characters (id, account_id, name, class, level)
		 SELECT $1, id, $3, $4, $5 FROM accounts WHERE id = $2
		 ON CONFLICT (name) DO NOTHING`,
		ref.ID, int64(accountID), name, ref.Class, int32(ref.Level),
	)
	if err != nil {
		return fmt.Errorf("insert character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, int64(accountID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check account: %w", err)
		}
		if !exists {
			return account.ErrNoSuchAccount
		}
		return account.ErrNameTaken
	}
	return nil
}

func (r *AccountRepo) Characters(ctx context.Context, accountID uint64) ([]account.CharacterRef, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, name, class, level FROM characters
		 WHERE account_id = $1 ORDER BY created_at, name`, int64(accountID),
	)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	var out []account.CharacterRef
	for rows.Next() {
		var (
			c     account.CharacterRef
			level int32
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Class, &level); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		c.Level = uint32(level)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return out, nil
}

// UpdateLevel keeps the character list summary in step with saves.
func (r *AccountRepo) UpdateLevel(ctx context.Context, ref account.CharacterRef) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET level = $2 WHERE id = $1`, ref.ID, int32(ref.Level),
	)
	return err
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashrafalve/ecommerce-store-go/internal/session"
)

type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Load(ctx context.Context, sid string) (session.Data, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE sid=$1`, sid).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Data{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := session.Data{}
	// A corrupt blob reads as an empty session and gets overwritten on the
	// next save.
	if json.Unmarshal(raw, &data) != nil {
		return session.Data{}, nil
	}
	return data, nil
}

func (s *SessionStore) Save(ctx context.Context, sid string, data session.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions(sid, data) VALUES($1, $2)
		 ON CONFLICT (sid) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`, sid, raw)
	return err
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE sid=$1`, sid)
	return err
}

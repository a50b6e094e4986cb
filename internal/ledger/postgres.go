package ledger

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ligun0805/airdrop-engine/internal/airdropcore"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Postgres shares settlement state between operators.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("ledger migrations: %w", err)
	}
	return nil
}

const selectColumns = `run_id, key, address, asset, amount, state, tx_hash, batch_index, error, updated_at`

func scanEntry(row pgx.Row) (airdropcore.LedgerEntry, error) {
	var (
		e     airdropcore.LedgerEntry
		state string
	)
	err := row.Scan(&e.RunID, &e.Key, &e.Address, &e.Asset, &e.Amount, &state, &e.TxHash, &e.BatchIndex, &e.Error, &e.UpdatedAt)
	e.State = airdropcore.SettlementState(state)
	return e, err
}

func (p *Postgres) Lookup(ctx context.Context, runID string, keys []string) (out map[string]airdropcore.LedgerEntry, err error) {
	defer func() { observe(backendPostgres, "lookup", err) }()
	rows, err := p.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM airdrop_ledger WHERE run_id = $1 AND key = ANY($2)`, runID, keys)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer rows.Close()
	out = make(map[string]airdropcore.LedgerEntry, len(keys))
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out[e.Key] = e
	}
	return out, rows.Err()
}

// Record upserts entries in one transaction.
func (p *Postgres) Record(ctx context.Context, entries ...airdropcore.LedgerEntry) (err error) {
	defer func() { observe(backendPostgres, "record", err) }()
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		if err := validEntry(e); err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO airdrop_ledger (`+selectColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (run_id, key) DO UPDATE SET
				state = EXCLUDED.state,
				tx_hash = EXCLUDED.tx_hash,
				batch_index = EXCLUDED.batch_index,
				error = EXCLUDED.error,
				updated_at = EXCLUDED.updated_at`,
			e.RunID, e.Key, e.Address, e.Asset, e.Amount, string(e.State), e.TxHash, e.BatchIndex, e.Error, e.UpdatedAt)
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *Postgres) Entries(ctx context.Context, runID string) (out []airdropcore.LedgerEntry, err error) {
	defer func() { observe(backendPostgres, "entries", err) }()
	rows, err := p.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM airdrop_ledger WHERE run_id = $1 ORDER BY key`, runID)
	if err != nil {
		return nil, fmt.Errorf("entries: %w", err)
	}
	defer rows.Close()
	out = []airdropcore.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Runs(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT run_id FROM airdrop_ledger ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

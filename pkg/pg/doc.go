// Package pg wraps jackc/pgx/v5 connection pooling, goose migrations and
// transaction handling, plus helpers for classifying PostgreSQL errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { ... }
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil { ... }
//
//	err = pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "UPDATE ...")
//	    return err
//	})
package pg

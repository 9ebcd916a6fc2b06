package sink

import (
	"context"
	"database/sql"
	"fmt"

	"ayat-booking/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Open connects to the bookings database. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case "", "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

type DB struct {
	Bun *bun.DB
}

// CreateSchema creates the bookings table if it does not exist yet.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().Model((*models.SinkRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

// InsertBooking stores row and fills in its id.
func (d *DB) InsertBooking(ctx context.Context, row *models.SinkRow) error {
	_, err := d.Bun.NewInsert().Model(row).Returning("id").Exec(ctx)
	return err
}

func (d *DB) ListBookings(ctx context.Context) ([]models.SinkRow, error) {
	var rows []models.SinkRow
	err := d.Bun.NewSelect().
		Model(&rows).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

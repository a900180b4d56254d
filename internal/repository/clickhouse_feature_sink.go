package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	pkgch "StratForge/pkg/clickhouse"
)

// CHFeatureSink writes computed feature columns as flat rows
// (run_id, symbol, tf, bucket, feature_id, value) for downstream training
// and inspection queries.
type CHFeatureSink struct {
	db    *sql.DB
	table string
}

func NewCHFeatureSink(ch *pkgch.Client, table string) *CHFeatureSink {
	return &CHFeatureSink{db: ch.DB(), table: table}
}

func (s *CHFeatureSink) StoreTable(ctx context.Context, runID, symbol string, t *models.FeatureTable) error {
	const chunkSize = 2000
	values := make([]string, 0, chunkSize)
	args := make([]interface{}, 0, chunkSize*6)

	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		q := fmt.Sprintf("INSERT INTO %s (run_id, symbol, tf, bucket, feature_id, value) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store feature rows: %w", err)
		}
		values = values[:0]
		args = args[:0]
		return nil
	}

	for _, col := range t.Columns {
		for i, v := range col.Values {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, runID, symbol, col.Timeframe, col.Times[i], col.FeatureID, v)
			if len(values) >= chunkSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (s *CHFeatureSink) Close() error {
	return nil // connection pool owned by pkg/clickhouse
}

var _ domrepo.FeatureSink = (*CHFeatureSink)(nil)

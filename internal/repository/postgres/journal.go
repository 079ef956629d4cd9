package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/projectledger/projectledger/internal/domain/ledger"
	"github.com/projectledger/projectledger/internal/logger"
	"github.com/projectledger/projectledger/internal/postgres"
	"github.com/projectledger/projectledger/internal/types"
)

// journalGateway writes entries into journal_entries/journal_lines of the same database, inside
// the caller's transaction, so a failed mutation rolls its posting back with it.
type journalGateway struct {
	client *postgres.Client
	logger *logger.Logger
}

func NewJournalGateway(client *postgres.Client, log *logger.Logger) ledger.Gateway {
	return &journalGateway{client: client, logger: log}
}

func (g *journalGateway) Post(ctx context.Context, entry *ledger.Entry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	q := g.client.Querier(ctx)
	tenantID := types.GetTenantID(ctx)
	now := time.Now().UTC()

	entryID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_JOURNAL_ENTRY)
	var idempotencyKey *string
	if entry.IdempotencyKey != "" {
		idempotencyKey = &entry.IdempotencyKey
	}

	var postedID string
	err := q.QueryRowContext(ctx, `
		INSERT INTO journal_entries (id, tenant_id, entry_date, description, currency,
			reference_type, reference_id, idempotency_key, total_amount, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING
		RETURNING id
	`, entryID, tenantID, entry.EntryDate, entry.Description, entry.Currency,
		entry.ReferenceType, entry.ReferenceID, idempotencyKey, entry.TotalDebit(), now, types.GetUserID(ctx),
	).Scan(&postedID)

	if errors.Is(err, sql.ErrNoRows) {
		// already posted under this idempotency key
		if err := q.QueryRowContext(ctx, `
			SELECT id FROM journal_entries WHERE tenant_id = $1 AND idempotency_key = $2
		`, tenantID, entry.IdempotencyKey).Scan(&postedID); err != nil {
			return "", dbError(err, "Failed to resolve existing journal entry")
		}
		g.logger.WithContext(ctx).Infow("journal entry already posted",
			"journal_entry_id", postedID,
			"idempotency_key", entry.IdempotencyKey,
		)
		return postedID, nil
	}
	if err != nil {
		return "", dbError(err, "Failed to insert journal entry")
	}

	for i, line := range entry.Lines {
		var tags interface{}
		if len(line.Tags) > 0 {
			encoded, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(line.Tags)
			if err != nil {
				return "", dbError(err, "Failed to encode journal line tags")
			}
			tags = encoded
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO journal_lines (id, tenant_id, entry_id, line_number, account_code,
				debit, credit, description, tags)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_JOURNAL_LINE), tenantID, postedID, i+1,
			line.AccountCode, line.Debit, line.Credit, line.Description, tags,
		); err != nil {
			return "", dbError(err, "Failed to insert journal line")
		}
	}

	return postedID, nil
}

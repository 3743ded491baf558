// Package postgres implements the withdrawal store on PostgreSQL. Every
// state transition runs in its own transaction, re-reads the request row
// under a row lock and refuses to move a terminal request, so concurrent
// engines and operator tooling cannot corrupt the lifecycle.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

const requestColumns = `
	id, user_id, trade_url, status, priority,
	request_date, processing_date, completion_date, failed_reason,
	trade_offer_id, purchase_method, economics, confirmation_state, tracking_data
`

// Store implements the withdrawal persistence port.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// PendingBatch returns up to limit pending requests in dispatch order:
// higher priority first, oldest first within a band. Items are attached.
func (s *Store) PendingBatch(ctx context.Context, limit int) ([]*domain.Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY priority DESC, request_date ASC
		LIMIT $2
	`, domain.StatusPending, limit)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// InFlight returns requests waiting on an external system.
func (s *Store) InFlight(ctx context.Context) ([]*domain.Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM withdrawal_requests
		WHERE status = ANY($1)
		ORDER BY processing_date ASC
	`, []string{string(domain.StatusTradeSent), string(domain.StatusPurchasedSecondary)})
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	requests, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// MarkProcessing moves a pending request into processing.
func (s *Store) MarkProcessing(ctx context.Context, id int64, tracking domain.Tracking) error {
	return s.transition(ctx, id, tracking, func(ctx context.Context, tx pgx.Tx, current domain.Status) error {
		if current != domain.StatusPending {
			return apperror.New(apperror.CodeInvalidState,
				apperror.WithContext("expected pending, found "+string(current)))
		}
		_, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, processing_date = now()
			WHERE id = $1
		`, id, domain.StatusProcessing)
		return err
	})
}

// Requeue returns a processing request to pending for a later tick.
func (s *Store) Requeue(ctx context.Context, id int64, reason string, tracking domain.Tracking) error {
	tracking.Record("requeued", reason)
	return s.transition(ctx, id, tracking, func(ctx context.Context, tx pgx.Tx, current domain.Status) error {
		_, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, processing_date = NULL
			WHERE id = $1
		`, id, domain.StatusPending)
		return err
	})
}

// MarkTradeSent records a sent trade offer and its confirmation state.
func (s *Store) MarkTradeSent(ctx context.Context, id int64, offerID string, confirmation domain.ConfirmationState, tracking domain.Tracking) error {
	return s.transition(ctx, id, tracking, func(ctx context.Context, tx pgx.Tx, current domain.Status) error {
		_, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, trade_offer_id = $3, purchase_method = $4, confirmation_state = $5
			WHERE id = $1
		`, id, domain.StatusTradeSent, offerID, domain.MethodBotInventory, confirmation)
		return err
	})
}

// MarkPurchased records a secondary marketplace purchase.
func (s *Store) MarkPurchased(ctx context.Context, id int64, orderID string, economics *domain.SecondaryEconomics, tracking domain.Tracking) error {
	econJSON, err := json.Marshal(economics)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "encoding economics")
	}
	return s.transition(ctx, id, tracking, func(ctx context.Context, tx pgx.Tx, current domain.Status) error {
		_, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, trade_offer_id = $3, purchase_method = $4, economics = $5
			WHERE id = $1
		`, id, domain.StatusPurchasedSecondary, orderID, domain.MethodSecondaryMarket, econJSON)
		return err
	})
}

// MarkWaitingConfirmation parks the request for operator review.
func (s *Store) MarkWaitingConfirmation(ctx context.Context, id int64, reason string, tracking domain.Tracking) error {
	tracking.Record("waiting_confirmation", reason)
	return s.transition(ctx, id, tracking, func(ctx context.Context, tx pgx.Tx, current domain.Status) error {
		_, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2
			WHERE id = $1
		`, id, domain.StatusWaitingConfirmation)
		return err
	})
}

// SetConfirmationState updates only the confirmation column.
func (s *Store) SetConfirmationState(ctx context.Context, id int64, state domain.ConfirmationState, tracking domain.Tracking) error {
	return s.transition(ctx, id, tracking, func(ctx context.Context, tx pgx.Tx, current domain.Status) error {
		_, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET confirmation_state = $2
			WHERE id = $1
		`, id, state)
		return err
	})
}

// Complete finalizes a fulfilled request. The request row and its item
// links flip in one transaction: status to completed, items to withdrawn.
// Calling it twice is safe; the second call reports applied=false.
func (s *Store) Complete(ctx context.Context, id int64, method domain.PurchaseMethod, tracking domain.Tracking) (int64, bool, error) {
	var userID int64
	applied := false
	err := s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, uid, err := lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		userID = uid
		if current.IsTerminal() {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, purchase_method = $3, completion_date = now()
			WHERE id = $1
		`, id, domain.StatusCompleted, method)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE inventory_items
			SET status = $2
			WHERE withdrawal_id = $1 AND status = $3
		`, id, domain.ItemWithdrawn, domain.ItemReserved)
		if err != nil {
			return err
		}
		if err := mergeTracking(ctx, tx, id, tracking); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return userID, applied, nil
}

// Fail finalizes a failed request. Reserved items return to available
// inventory in the same transaction, so no item is ever stranded on a
// failed withdrawal.
func (s *Store) Fail(ctx context.Context, id int64, reason string, tracking domain.Tracking) (int64, bool, error) {
	var userID int64
	applied := false
	err := s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, uid, err := lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		userID = uid
		if current.IsTerminal() {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, failed_reason = $3, completion_date = now()
			WHERE id = $1
		`, id, domain.StatusFailed, reason)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE inventory_items
			SET status = $2, withdrawal_id = NULL
			WHERE withdrawal_id = $1 AND status = $3
		`, id, domain.ItemInInventory, domain.ItemReserved)
		if err != nil {
			return err
		}
		if err := mergeTracking(ctx, tx, id, tracking); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return userID, applied, nil
}

// transition wraps a non-terminal state change: lock, terminal check,
// mutation, tracking merge, commit.
func (s *Store) transition(ctx context.Context, id int64, tracking domain.Tracking, mutate func(context.Context, pgx.Tx, domain.Status) error) error {
	return s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, _, err := lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return apperror.New(apperror.CodeTerminalStatus,
				apperror.WithContext(string(current)))
		}
		if err := mutate(ctx, tx, current); err != nil {
			return err
		}
		return mergeTracking(ctx, tx, id, tracking)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return dbErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		if apperror.IsAppError(err) {
			return err
		}
		return dbErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return dbErr(err)
	}
	return nil
}

func lockRequest(ctx context.Context, tx pgx.Tx, id int64) (domain.Status, int64, error) {
	var status domain.Status
	var userID int64
	err := tx.QueryRow(ctx, `
		SELECT status, user_id FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, apperror.NotFound(apperror.CodeWithdrawalNotFound, "withdrawal lookup")
		}
		return "", 0, err
	}
	return status, userID, nil
}

// mergeTracking appends audit events. The jsonb concatenation only ever
// adds keys; event keys carry a nanosecond timestamp suffix so entries are
// never overwritten.
func mergeTracking(ctx context.Context, tx pgx.Tx, id int64, tracking domain.Tracking) error {
	if len(tracking) == 0 {
		return nil
	}
	payload, err := json.Marshal(tracking)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE withdrawal_requests
		SET tracking_data = tracking_data || $2::jsonb
		WHERE id = $1
	`, id, payload)
	return err
}

func scanRequests(rows pgx.Rows) ([]*domain.Request, error) {
	var requests []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err)
	}
	return requests, nil
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var (
		req          domain.Request
		failedReason *string
		offerID      *string
		econJSON     []byte
		trackingJSON []byte
	)
	err := row.Scan(
		&req.ID, &req.UserID, &req.TradeURL, &req.Status, &req.Priority,
		&req.RequestDate, &req.ProcessingDate, &req.CompletionDate, &failedReason,
		&offerID, &req.PurchaseMethod, &econJSON, &req.ConfirmationState, &trackingJSON,
	)
	if err != nil {
		return nil, err
	}
	if failedReason != nil {
		req.FailedReason = *failedReason
	}
	if offerID != nil {
		req.TradeOfferID = *offerID
	}
	if len(econJSON) > 0 {
		var econ domain.SecondaryEconomics
		if err := json.Unmarshal(econJSON, &econ); err == nil {
			req.Economics = &econ
		}
	}
	if len(trackingJSON) > 0 {
		_ = json.Unmarshal(trackingJSON, &req.Tracking)
	}
	return &req, nil
}

func (s *Store) attachItems(ctx context.Context, requests []*domain.Request) error {
	if len(requests) == 0 {
		return nil
	}
	ids := make([]int64, len(requests))
	byID := make(map[int64]*domain.Request, len(requests))
	for i, req := range requests {
		ids[i] = req.ID
		byID[req.ID] = req
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, withdrawal_id, market_hash_name, platform_price, status
		FROM inventory_items
		WHERE withdrawal_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return dbErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ItemLink
		if err := rows.Scan(&item.ID, &item.WithdrawalID, &item.MarketHashName, &item.PlatformPrice, &item.Status); err != nil {
			return dbErr(err)
		}
		if req, ok := byID[item.WithdrawalID]; ok {
			req.Items = append(req.Items, item)
		}
	}
	return dbErrOrNil(rows.Err())
}

func dbErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return apperror.New(apperror.CodeTransactionConflict, apperror.WithCause(err))
	}
	return apperror.External(apperror.CodeDatabaseError, "postgres", err)
}

func dbErrOrNil(err error) error {
	if err == nil {
		return nil
	}
	return dbErr(err)
}

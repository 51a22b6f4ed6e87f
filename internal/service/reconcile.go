package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/enum"
	"github.com/sahar-erp/api/internal/metrics"
)

const reconcileBatchSize = 50

// ReconcileStore defines the DB methods the reconciler needs.
// Satisfied by *database.Queries.
type ReconcileStore interface {
	OrderLineStore
	ListStaleCheckoutDrafts(ctx context.Context, arg database.ListStaleCheckoutDraftsParams) ([]database.CheckoutDraft, error)
	GetOrderByIdempotencyKey(ctx context.Context, idempotencyKey pgtype.UUID) (database.Order, error)
	FinishCheckoutDraft(ctx context.Context, arg database.FinishCheckoutDraftParams) error
}

// ReconcileReport counts what one reconcile pass did.
type ReconcileReport struct {
	Completed int
	Repaired  int
	Abandoned int
	Failed    int
}

// Reconciler closes checkout drafts that were left Started: an order without
// lines gets its lines rebuilt from the draft, a draft with no order is abandoned.
type Reconciler struct {
	store    ReconcileStore
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

func NewReconciler(store ReconcileStore, interval, grace time.Duration) *Reconciler {
	return &Reconciler{store: store, interval: interval, grace: grace, now: time.Now}
}

// Run reconciles every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("checkout reconciler started", "interval", r.interval, "grace", r.grace)
	for {
		select {
		case <-ctx.Done():
			slog.Info("checkout reconciler stopped")
			return
		case <-ticker.C:
			rep, err := r.ReconcileOnce(ctx)
			if err != nil {
				slog.Error("reconcile checkouts", "error", err)
				continue
			}
			if rep != (ReconcileReport{}) {
				slog.Info("reconciled checkouts",
					"completed", rep.Completed,
					"repaired", rep.Repaired,
					"abandoned", rep.Abandoned,
					"failed", rep.Failed,
				)
			}
		}
	}
}

// ReconcileOnce handles one batch of drafts idle for longer than the grace period.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileReport, error) {
	var rep ReconcileReport
	drafts, err := r.store.ListStaleCheckoutDrafts(ctx, database.ListStaleCheckoutDraftsParams{
		Before: r.now().Add(-r.grace),
		Limit:  reconcileBatchSize,
	})
	if err != nil {
		return rep, fmt.Errorf("list stale drafts: %w", err)
	}

	for _, d := range drafts {
		outcome, err := r.reconcile(ctx, d)
		if err != nil {
			rep.Failed++
			slog.WarnContext(ctx, "reconcile draft", "idempotency_key", d.IdempotencyKey, "error", err)
			continue
		}
		metrics.RecordReconciled(strings.ToLower(outcome))
		switch outcome {
		case enum.DraftStatusCompleted:
			rep.Completed++
		case enum.DraftStatusRepaired:
			rep.Repaired++
		case enum.DraftStatusAbandoned:
			rep.Abandoned++
		}
	}
	return rep, nil
}

func (r *Reconciler) reconcile(ctx context.Context, d database.CheckoutDraft) (string, error) {
	order, err := r.store.GetOrderByIdempotencyKey(ctx, pgtype.UUID{Bytes: d.IdempotencyKey, Valid: true})
	if errors.Is(err, pgx.ErrNoRows) {
		return enum.DraftStatusAbandoned, r.finish(ctx, d, enum.DraftStatusAbandoned)
	}
	if err != nil {
		return "", fmt.Errorf("find order: %w", err)
	}

	n, err := r.store.CountOrderLines(ctx, order.OrderID)
	if err != nil {
		return "", fmt.Errorf("count order lines: %w", err)
	}
	if n > 0 {
		return enum.DraftStatusCompleted, r.finish(ctx, d, enum.DraftStatusCompleted)
	}

	var p draftPayload
	if err := json.Unmarshal(d.Payload, &p); err != nil {
		return "", fmt.Errorf("decode draft payload: %w", err)
	}
	if len(p.Lines) == 0 {
		return "", errors.New("draft payload has no lines")
	}
	written, err := ensureOrderLines(ctx, r.store, order.OrderID, p.Lines)
	if err != nil {
		return "", err
	}
	if !written {
		return enum.DraftStatusCompleted, r.finish(ctx, d, enum.DraftStatusCompleted)
	}
	slog.InfoContext(ctx, "rebuilt order lines", "order_id", order.OrderID, "lines", len(p.Lines))
	return enum.DraftStatusRepaired, r.finish(ctx, d, enum.DraftStatusRepaired)
}

func (r *Reconciler) finish(ctx context.Context, d database.CheckoutDraft, status string) error {
	if err := r.store.FinishCheckoutDraft(ctx, database.FinishCheckoutDraftParams{
		IdempotencyKey: d.IdempotencyKey,
		Status:         status,
		LastError:      d.LastError,
	}); err != nil {
		return fmt.Errorf("finish draft: %w", err)
	}
	return nil
}

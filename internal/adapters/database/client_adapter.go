package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

var (
	clientColumns = []interface{}{
		"id", "email", "name", "phone_number", "weekly_limit", "credits", "created_at", "updated_at",
	}
	slotColumns = []interface{}{"id", "client_id", "day_of_week", "start_time", "position"}
)

// ClientAdapter implements the ClientRepository interface
type ClientAdapter struct {
	db DBTX
}

// NewClientAdapter creates a new client adapter
func NewClientAdapter(db DBTX) *ClientAdapter {
	return &ClientAdapter{db: db}
}

// GetByID retrieves a client with default slots in stored order
func (a *ClientAdapter) GetByID(ctx context.Context, id int64) (*entities.Client, error) {
	query, args, err := build(dialect.From(tableClients).Select(clientColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, err
	}

	client := &entities.Client{}
	if err := a.db.GetContext(ctx, client, query, args...); err != nil {
		return nil, mapError(err, fmt.Sprintf("client with id %d not found", id), "failed to get client")
	}

	slots, err := a.slots(ctx, goqu.C("client_id").Eq(id))
	if err != nil {
		return nil, err
	}
	client.DefaultSlots = slots
	return client, nil
}

// ListWithDefaultSlots returns clients that have at least one default slot, ascending by ID
func (a *ClientAdapter) ListWithDefaultSlots(ctx context.Context) ([]*entities.Client, error) {
	withSlots := dialect.From(tableDefaultSlots).Select("client_id")

	query, args, err := build(dialect.From(tableClients).Select(clientColumns...).
		Where(goqu.C("id").In(withSlots)).
		Order(goqu.C("id").Asc()).Prepared(true))
	if err != nil {
		return nil, err
	}

	clients := []*entities.Client{}
	if err := a.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, mapError(err, "", "failed to list clients")
	}
	if len(clients) == 0 {
		return clients, nil
	}

	ids := make([]int64, 0, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ID)
	}
	slots, err := a.slots(ctx, goqu.C("client_id").In(ids))
	if err != nil {
		return nil, err
	}

	byClient := make(map[int64]*entities.Client, len(clients))
	for _, c := range clients {
		byClient[c.ID] = c
	}
	for _, s := range slots {
		if c, ok := byClient[s.ClientID]; ok {
			c.DefaultSlots = append(c.DefaultSlots, s)
		}
	}
	return clients, nil
}

func (a *ClientAdapter) slots(ctx context.Context, where exp.Expression) ([]entities.DefaultSlot, error) {
	query, args, err := build(dialect.From(tableDefaultSlots).Select(slotColumns...).
		Where(where).
		Order(goqu.C("client_id").Asc(), goqu.C("position").Asc(), goqu.C("id").Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}

	slots := []entities.DefaultSlot{}
	if err := a.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, mapError(err, "", "failed to list default slots")
	}
	return slots, nil
}

// AdjustCredits adds delta to the balance in a single conditional update
func (a *ClientAdapter) AdjustCredits(ctx context.Context, id int64, delta int) (int, error) {
	query, args, err := build(dialect.Update(tableClients).Set(goqu.Record{
		"credits":    goqu.L("credits + ?", delta),
		"updated_at": goqu.L("NOW()"),
	}).Where(
		goqu.C("id").Eq(id),
		goqu.L("credits + ? >= 0", delta),
	).Returning("credits").Prepared(true))
	if err != nil {
		return 0, err
	}

	var credits int
	err = a.db.GetContext(ctx, &credits, query, args...)
	if err == nil {
		return credits, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, mapError(err, "", "failed to adjust credits")
	}

	current, err := a.currentCredits(ctx, id)
	if err != nil {
		return 0, err
	}
	return current, apperrors.NewQuotaExceededError(fmt.Sprintf("Client has %d workout credits.", current))
}

func (a *ClientAdapter) currentCredits(ctx context.Context, id int64) (int, error) {
	query, args, err := build(dialect.From(tableClients).Select("credits").
		Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return 0, err
	}

	var credits int
	if err := a.db.GetContext(ctx, &credits, query, args...); err != nil {
		return 0, mapError(err, fmt.Sprintf("client with id %d not found", id), "failed to get credits")
	}
	return credits, nil
}

var _ repositories.ClientRepository = (*ClientAdapter)(nil)

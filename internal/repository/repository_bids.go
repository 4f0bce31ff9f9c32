package repository

import (
	"context"
	"database/sql"
	"fmt"

	"roadside/internal/models"

	"github.com/Masterminds/squirrel"
)

func (repo *Repository) RepairBids(ctx context.Context, postIds []string) ([]models.Bid, error) {
	bids, err := repo.bids(ctx, models.SourceRepair, postIds)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.RepairBids: %w", err)
	}
	return bids, nil
}

func (repo *Repository) TowingBids(ctx context.Context, postIds []string) ([]models.Bid, error) {
	bids, err := repo.bids(ctx, models.SourceTowing, postIds)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.TowingBids: %w", err)
	}
	return bids, nil
}

// bids reads every bid of the given posts, oldest first.
func (repo *Repository) bids(ctx context.Context, source models.Source, postIds []string) ([]models.Bid, error) {
	bids := make([]models.Bid, 0)
	if len(postIds) == 0 {
		return bids, nil
	}

	table, err := bidTable(source)
	if err != nil {
		return nil, err
	}

	query, args, err := repo.builder.
		Select("id", "post_id", "technician_name", "bid_amount", "status", "created_at").
		From(table).
		Where(squirrel.Eq{"post_id": postIds}).
		OrderBy("created_at ASC", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		bid := models.Bid{Source: source}
		var status sql.NullString
		err = rows.Scan(&bid.Id, &bid.PostId, &bid.TechnicianName, &bid.BidAmount, &status, &bid.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("rows scan error: %w", err)
		}
		bid.Status = status.String
		bids = append(bids, bid)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return bids, nil
}

func (repo *Repository) AddBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	table, err := bidTable(bid.Source)
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: %w", err)
	}
	fillIdentity(&bid.Id, &bid.CreatedAt)

	var status any
	if bid.Status != "" {
		status = bid.Status
	}

	query, args, err := repo.builder.
		Insert(table).
		Columns("id", "post_id", "technician_name", "bid_amount", "status", "created_at").
		Values(bid.Id, bid.PostId, bid.TechnicianName, bid.BidAmount, status, bid.CreatedAt).
		ToSql()
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: %w", err)
	}

	_, err = repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return bid, fmt.Errorf("repository.Repository.AddBid: %w", err)
	}
	return bid, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roadside/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var repairColumns = []string{
	"id", "customer_id", "status", "budget", "pricing_type", "service_type",
	"vehicle_make", "vehicle_model", "vehicle_year", "city", "address",
	"description", "urgency", "created_at",
}

var towingColumns = []string{
	"id", "customer_id", "status", "total_cost", "pricing_type", "vehicle_info",
	"pickup_city", "pickup_address", "dropoff_address", "notes",
	"preferred_timing", "created_at",
}

// RepairRequests returns the customer's repair requests, newest first.
func (repo *Repository) RepairRequests(ctx context.Context, customerId string) ([]models.RepairRequest, error) {
	query, args, err := repo.builder.
		Select(repairColumns...).
		From("repair_requests").
		Where(squirrel.Eq{"customer_id": customerId}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.RepairRequests: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.RepairRequests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.RepairRequest, 0)
	for rows.Next() {
		var r models.RepairRequest
		err = rows.Scan(&r.Id, &r.CustomerId, &r.Status, &r.Budget, &r.PricingType, &r.ServiceType,
			&r.VehicleMake, &r.VehicleModel, &r.VehicleYear, &r.City, &r.Address,
			&r.Description, &r.Urgency, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.RepairRequests: rows scan error: %w", err)
		}
		requests = append(requests, r)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.RepairRequests: %w", rows.Err())
	}

	return requests, nil
}

// TowingRequests returns the customer's towing requests, newest first.
func (repo *Repository) TowingRequests(ctx context.Context, customerId string) ([]models.TowingRequest, error) {
	query, args, err := repo.builder.
		Select(towingColumns...).
		From("towing_requests").
		Where(squirrel.Eq{"customer_id": customerId}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.TowingRequests: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.TowingRequests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.TowingRequest, 0)
	for rows.Next() {
		var r models.TowingRequest
		err = rows.Scan(&r.Id, &r.CustomerId, &r.Status, &r.TotalCost, &r.PricingType, &r.VehicleInfo,
			&r.PickupCity, &r.PickupAddress, &r.DropoffAddress, &r.Notes,
			&r.PreferredTiming, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.TowingRequests: rows scan error: %w", err)
		}
		requests = append(requests, r)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.TowingRequests: %w", rows.Err())
	}

	return requests, nil
}

// RepairRequest reads one of the customer's repair requests.
func (repo *Repository) RepairRequest(ctx context.Context, customerId, id string) (models.RepairRequest, bool, error) {
	var r models.RepairRequest
	if _, err := uuid.Parse(id); err != nil {
		return r, false, nil
	}

	query, args, err := repo.builder.
		Select(repairColumns...).
		From("repair_requests").
		Where(squirrel.Eq{"id": id, "customer_id": customerId}).
		Limit(1).
		ToSql()
	if err != nil {
		return r, false, fmt.Errorf("repository.Repository.RepairRequest: %w", err)
	}

	row := repo.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&r.Id, &r.CustomerId, &r.Status, &r.Budget, &r.PricingType, &r.ServiceType,
		&r.VehicleMake, &r.VehicleModel, &r.VehicleYear, &r.City, &r.Address,
		&r.Description, &r.Urgency, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RepairRequest{}, false, nil
	} else if err != nil {
		return models.RepairRequest{}, false, fmt.Errorf("repository.Repository.RepairRequest: %w", err)
	}

	return r, true, nil
}

// TowingRequest reads one of the customer's towing requests.
func (repo *Repository) TowingRequest(ctx context.Context, customerId, id string) (models.TowingRequest, bool, error) {
	var r models.TowingRequest
	if _, err := uuid.Parse(id); err != nil {
		return r, false, nil
	}

	query, args, err := repo.builder.
		Select(towingColumns...).
		From("towing_requests").
		Where(squirrel.Eq{"id": id, "customer_id": customerId}).
		Limit(1).
		ToSql()
	if err != nil {
		return r, false, fmt.Errorf("repository.Repository.TowingRequest: %w", err)
	}

	row := repo.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(&r.Id, &r.CustomerId, &r.Status, &r.TotalCost, &r.PricingType, &r.VehicleInfo,
		&r.PickupCity, &r.PickupAddress, &r.DropoffAddress, &r.Notes,
		&r.PreferredTiming, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TowingRequest{}, false, nil
	} else if err != nil {
		return models.TowingRequest{}, false, fmt.Errorf("repository.Repository.TowingRequest: %w", err)
	}

	return r, true, nil
}

// UpdateCancellation writes the cancellation patch to the owning table.
// Only the owner's row is touched; no match means ErrNoRequest.
func (repo *Repository) UpdateCancellation(ctx context.Context, c models.Cancellation) error {
	table, err := requestTable(c.Source)
	if err != nil {
		return fmt.Errorf("repository.Repository.UpdateCancellation: %w", err)
	}
	if _, err = uuid.Parse(c.RequestId); err != nil {
		return fmt.Errorf("repository.Repository.UpdateCancellation: %w: %s", models.ErrNoRequest, c.RequestId)
	}

	query, args, err := repo.builder.
		Update(table).
		Set("status", models.StatusCancelled).
		Set("cancellation_fee", c.Fee).
		Set("cancelled_by", c.CustomerId).
		Set("cancelled_at", c.CancelledAt).
		Set("refund_amount", c.Refund).
		Where(squirrel.Eq{"id": c.RequestId, "customer_id": c.CustomerId}).
		ToSql()
	if err != nil {
		return fmt.Errorf("repository.Repository.UpdateCancellation: %w", err)
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository.Repository.UpdateCancellation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository.Repository.UpdateCancellation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repository.Repository.UpdateCancellation: %w: %s/%s", models.ErrNoRequest, c.Source, c.RequestId)
	}

	return nil
}

//// Seeding

func (repo *Repository) AddRepairRequest(ctx context.Context, r models.RepairRequest) (models.RepairRequest, error) {
	fillIdentity(&r.Id, &r.CreatedAt)
	if r.Status == "" {
		r.Status = models.StatusActive
	}

	query, args, err := repo.builder.
		Insert("repair_requests").
		Columns(repairColumns...).
		Values(r.Id, r.CustomerId, r.Status, r.Budget, r.PricingType, r.ServiceType,
			r.VehicleMake, r.VehicleModel, r.VehicleYear, r.City, r.Address,
			r.Description, r.Urgency, r.CreatedAt).
		ToSql()
	if err != nil {
		return r, fmt.Errorf("repository.Repository.AddRepairRequest: %w", err)
	}

	_, err = repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r, fmt.Errorf("repository.Repository.AddRepairRequest: %w", err)
	}
	return r, nil
}

func (repo *Repository) AddTowingRequest(ctx context.Context, r models.TowingRequest) (models.TowingRequest, error) {
	fillIdentity(&r.Id, &r.CreatedAt)
	if r.Status == "" {
		r.Status = models.StatusActive
	}

	query, args, err := repo.builder.
		Insert("towing_requests").
		Columns(towingColumns...).
		Values(r.Id, r.CustomerId, r.Status, r.TotalCost, r.PricingType, r.VehicleInfo,
			r.PickupCity, r.PickupAddress, r.DropoffAddress, r.Notes,
			r.PreferredTiming, r.CreatedAt).
		ToSql()
	if err != nil {
		return r, fmt.Errorf("repository.Repository.AddTowingRequest: %w", err)
	}

	_, err = repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r, fmt.Errorf("repository.Repository.AddTowingRequest: %w", err)
	}
	return r, nil
}

func fillIdentity(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

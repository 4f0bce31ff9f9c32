package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"roadside/internal/models"

	gofakeit "github.com/brianvoe/gofakeit/v7"
)

func TestRequests(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	data := InsertTestInitData(t, repo)

	repair, err := repo.RepairRequests(ctx, data.customer.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(repair) != 2 {
		t.Fatalf("Expected 2 repair requests, got %d", len(repair))
	}
	if repair[0].Id != data.repair[1].Id {
		t.Errorf("Expected newest repair request first")
	}
	if repair[0].Status != models.StatusActive {
		t.Errorf("Expected default status ACTIVE, got %s", repair[0].Status)
	}
	if repair[0].Urgency != nil || repair[0].Address != nil {
		t.Errorf("Expected NULL columns to scan as nil")
	}
	if repair[0].Budget == nil || *repair[0].Budget != *data.repair[1].Budget {
		t.Errorf("Expected budget %v, got %v", *data.repair[1].Budget, repair[0].Budget)
	}

	towing, err := repo.TowingRequests(ctx, data.customer.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(towing) != 2 || towing[0].Id != data.towing[1].Id {
		t.Errorf("Expected 2 towing requests newest first, got %+v", towing)
	}

	other, err := repo.RepairRequests(ctx, gofakeit.UUID())
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no requests of an unknown customer, got %d", len(other))
	}
}

func TestRequestById(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	data := InsertTestInitData(t, repo)

	repair, ok, err := repo.RepairRequest(ctx, data.customer.Id, data.repair[0].Id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || repair.Id != data.repair[0].Id {
		t.Errorf("Expected repair request %s, got %+v", data.repair[0].Id, repair)
	}

	towing, ok, err := repo.TowingRequest(ctx, data.customer.Id, data.towing[1].Id)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || towing.Id != data.towing[1].Id {
		t.Errorf("Expected towing request %s, got %+v", data.towing[1].Id, towing)
	}

	_, ok, err = repo.RepairRequest(ctx, data.customer.Id, data.towing[0].Id)
	if err != nil || ok {
		t.Errorf("Expected towing id not to resolve in repair table, got %v, %v", ok, err)
	}

	_, ok, err = repo.TowingRequest(ctx, gofakeit.UUID(), data.towing[0].Id)
	if err != nil || ok {
		t.Errorf("Expected other customer lookup to miss, got %v, %v", ok, err)
	}

	_, ok, err = repo.RepairRequest(ctx, data.customer.Id, "not-a-uuid")
	if err != nil || ok {
		t.Errorf("Expected malformed id to miss, got %v, %v", ok, err)
	}
}

func TestUpdateCancellation(t *testing.T) {
	ctx := context.Background()
	repo := OpenTestRepo(t)
	defer repo.Close()

	data := InsertTestInitData(t, repo)
	target := data.towing[0]
	cancelledAt := time.Now().UTC().Truncate(time.Second)

	// someone else's request is not touched
	err := repo.UpdateCancellation(ctx, models.Cancellation{
		RequestId:   target.Id,
		Source:      models.SourceTowing,
		CustomerId:  gofakeit.UUID(),
		Fee:         5,
		CancelledAt: cancelledAt,
	})
	if !errors.Is(err, models.ErrNoRequest) {
		t.Fatalf("Expected no request error for another customer, got %v", err)
	}

	err = repo.UpdateCancellation(ctx, models.Cancellation{
		RequestId:   target.Id,
		Source:      models.SourceRepair,
		CustomerId:  data.customer.Id,
		CancelledAt: cancelledAt,
	})
	if !errors.Is(err, models.ErrNoRequest) {
		t.Fatalf("Expected no request error for the wrong table, got %v", err)
	}

	err = repo.UpdateCancellation(ctx, models.Cancellation{
		RequestId:   target.Id,
		Source:      models.SourceTowing,
		CustomerId:  data.customer.Id,
		Fee:         5,
		Refund:      17.5,
		CancelledAt: cancelledAt,
	})
	if err != nil {
		t.Fatal(err)
	}

	var status, cancelledBy string
	var fee, refund float64
	var at time.Time
	row := repo.TestGetDB().QueryRow(
		"SELECT status, cancellation_fee, cancelled_by, cancelled_at, refund_amount FROM towing_requests WHERE id = $1", target.Id)
	err = row.Scan(&status, &fee, &cancelledBy, &at, &refund)
	if err != nil {
		t.Fatal(err)
	}
	if status != models.StatusCancelled || fee != 5 || refund != 17.5 || cancelledBy != data.customer.Id {
		t.Errorf("Unexpected cancellation row: status=%s fee=%v refund=%v by=%s", status, fee, refund, cancelledBy)
	}
	if !at.Equal(cancelledAt) {
		t.Errorf("Expected cancelled_at %s, got %s", cancelledAt, at)
	}

	err = repo.UpdateCancellation(ctx, models.Cancellation{RequestId: "nope", Source: models.SourceTowing, CustomerId: data.customer.Id})
	if !errors.Is(err, models.ErrNoRequest) {
		t.Errorf("Expected no request error for malformed id, got %v", err)
	}

	err = repo.UpdateCancellation(ctx, models.Cancellation{RequestId: target.Id, Source: "boat", CustomerId: data.customer.Id})
	if !errors.Is(err, models.ErrInvalidSource) {
		t.Errorf("Expected invalid source error, got %v", err)
	}
}

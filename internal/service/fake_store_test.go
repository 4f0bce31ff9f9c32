package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"roadside/internal/logger"
	"roadside/internal/models"
)

var errStoreDown = errors.New("store is down")

// fakeStore keeps rows in memory and can fail selected reads.
type fakeStore struct {
	mu sync.Mutex

	customers map[string]models.Customer
	repair    []models.RepairRequest
	towing    []models.TowingRequest
	repairBid []models.Bid
	towingBid []models.Bid

	failCustomer  bool
	failRepair    bool
	failTowing    bool
	failRepairBid bool
	failTowingBid bool
	failUpdate    bool

	updates    []models.Cancellation
	bidQueries int
}

func newFakeStore(customerId string) *fakeStore {
	return &fakeStore{
		customers: map[string]models.Customer{
			customerId: {Id: customerId, Email: customerId + "@example.com"},
		},
	}
}

func (f *fakeStore) CustomerById(ctx context.Context, id string) (models.Customer, bool, error) {
	if f.failCustomer {
		return models.Customer{}, false, errStoreDown
	}
	c, ok := f.customers[id]
	return c, ok, nil
}

func (f *fakeStore) RepairRequests(ctx context.Context, customerId string) ([]models.RepairRequest, error) {
	if f.failRepair {
		return nil, errStoreDown
	}
	var rows []models.RepairRequest
	for _, r := range f.repair {
		if r.CustomerId == customerId {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (f *fakeStore) TowingRequests(ctx context.Context, customerId string) ([]models.TowingRequest, error) {
	if f.failTowing {
		return nil, errStoreDown
	}
	var rows []models.TowingRequest
	for _, r := range f.towing {
		if r.CustomerId == customerId {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (f *fakeStore) RepairRequest(ctx context.Context, customerId, id string) (models.RepairRequest, bool, error) {
	rows, err := f.RepairRequests(ctx, customerId)
	if err != nil {
		return models.RepairRequest{}, false, err
	}
	for _, r := range rows {
		if r.Id == id {
			return r, true, nil
		}
	}
	return models.RepairRequest{}, false, nil
}

func (f *fakeStore) TowingRequest(ctx context.Context, customerId, id string) (models.TowingRequest, bool, error) {
	rows, err := f.TowingRequests(ctx, customerId)
	if err != nil {
		return models.TowingRequest{}, false, err
	}
	for _, r := range rows {
		if r.Id == id {
			return r, true, nil
		}
	}
	return models.TowingRequest{}, false, nil
}

func (f *fakeStore) RepairBids(ctx context.Context, postIds []string) ([]models.Bid, error) {
	f.countBidQuery()
	if f.failRepairBid {
		return nil, errStoreDown
	}
	return filterBids(f.repairBid, postIds), nil
}

func (f *fakeStore) TowingBids(ctx context.Context, postIds []string) ([]models.Bid, error) {
	f.countBidQuery()
	if f.failTowingBid {
		return nil, errStoreDown
	}
	return filterBids(f.towingBid, postIds), nil
}

func (f *fakeStore) UpdateCancellation(ctx context.Context, c models.Cancellation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpdate {
		return errStoreDown
	}
	f.updates = append(f.updates, c)
	return nil
}

func (f *fakeStore) countBidQuery() {
	f.mu.Lock()
	f.bidQueries++
	f.mu.Unlock()
}

func filterBids(bids []models.Bid, postIds []string) []models.Bid {
	var out []models.Bid
	for _, b := range bids {
		if slices.Contains(postIds, b.PostId) {
			out = append(out, b)
		}
	}
	return out
}

type fakePublisher struct {
	fail      bool
	published []models.Cancellation
}

func (p *fakePublisher) RequestCancelled(ctx context.Context, c models.Cancellation) error {
	if p.fail {
		return errStoreDown
	}
	p.published = append(p.published, c)
	return nil
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriters(io.Discard, io.Discard)
}

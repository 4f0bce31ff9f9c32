package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"roadside/internal/logger"
	"roadside/internal/models"

	"golang.org/x/sync/errgroup"
)

type Store interface {
	CustomerById(ctx context.Context, id string) (models.Customer, bool, error)
	RepairRequests(ctx context.Context, customerId string) ([]models.RepairRequest, error)
	TowingRequests(ctx context.Context, customerId string) ([]models.TowingRequest, error)
	RepairRequest(ctx context.Context, customerId, id string) (models.RepairRequest, bool, error)
	TowingRequest(ctx context.Context, customerId, id string) (models.TowingRequest, bool, error)
	RepairBids(ctx context.Context, postIds []string) ([]models.Bid, error)
	TowingBids(ctx context.Context, postIds []string) ([]models.Bid, error)
	UpdateCancellation(ctx context.Context, c models.Cancellation) error
}

// Publisher announces completed cancellations to the refund process.
type Publisher interface {
	RequestCancelled(ctx context.Context, c models.Cancellation) error
}

type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

type Service struct {
	store     Store
	publisher Publisher
	log       Logger
	fee       float64
	now       func() time.Time
}

type option func(*Service)

func WithLogger(l Logger) option {
	return func(s *Service) {
		s.log = l
	}
}

func WithPublisher(p Publisher) option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithCancellationFee(fee float64) option {
	return func(s *Service) {
		s.fee = fee
	}
}

func WithClock(now func() time.Time) option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store Store, opts ...option) *Service {
	s := &Service{
		store: store,
		fee:   models.DefaultCancellationFee,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.New("")
	}
	return s
}

//// Requests

// LoadRequests returns every repair and towing request of the customer with
// bid stats attached, newest first. Only a failed repair fetch is fatal.
func (s *Service) LoadRequests(ctx context.Context, customerId string) ([]models.ServiceRequest, error) {
	err := s.checkCustomer(ctx, customerId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.LoadRequests: %w", err)
	}

	var repair []models.RepairRequest
	var towing []models.TowingRequest

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		repair, err = s.store.RepairRequests(gctx, customerId)
		if err != nil {
			return fmt.Errorf("%w: %w", models.ErrPrimaryFetch, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		towing, err = s.store.TowingRequests(gctx, customerId)
		if err != nil {
			s.log.Errorf("service.Service.LoadRequests: towing requests of %s: %s", customerId, err)
			towing = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service.Service.LoadRequests: %w", err)
	}

	requests := make([]models.ServiceRequest, 0, len(repair)+len(towing))
	repairIds := make([]string, 0, len(repair))
	towingIds := make([]string, 0, len(towing))
	for _, r := range repair {
		requests = append(requests, r.Normalize())
		repairIds = append(repairIds, r.Id)
	}
	for _, t := range towing {
		requests = append(requests, t.Normalize())
		towingIds = append(towingIds, t.Id)
	}

	repairStats, towingStats := s.bidStats(ctx, repairIds, towingIds)

	for i := range requests {
		stats := repairStats
		if requests[i].Source == models.SourceTowing {
			stats = towingStats
		}
		requests[i].BidStats = stats[requests[i].Id]
		if requests[i].BidStats.AcceptedCount > 1 {
			s.log.Errorf("service.Service.LoadRequests: %s request %s has %d accepted bids, reporting the latest",
				requests[i].Source, requests[i].Id, requests[i].BidStats.AcceptedCount)
		}
	}

	slices.SortStableFunc(requests, compareRequests)

	return requests, nil
}

// Tabs partitions the customer's requests into active, progress and completed.
func (s *Service) Tabs(ctx context.Context, customerId string) (models.Tabs, error) {
	requests, err := s.LoadRequests(ctx, customerId)
	if err != nil {
		return models.Tabs{}, fmt.Errorf("service.Service.Tabs: %w", err)
	}
	return models.Partition(requests), nil
}

// Request returns one request of the customer with its bid stats. A failed
// read of the owning table is reported as ErrPrimaryFetch, never as
// ErrNoRequest; a failed bid read leaves the stats empty.
func (s *Service) Request(ctx context.Context, customerId string, source models.Source, requestId string) (models.ServiceRequest, error) {
	request, err := s.ownedRequest(ctx, customerId, source, requestId)
	if err != nil {
		return models.ServiceRequest{}, fmt.Errorf("service.Service.Request: %w", err)
	}

	bids, err := s.fetchBids(ctx, source, []string{request.Id})
	if err != nil {
		s.log.Errorf("service.Service.Request: %s bids of %s: %s", source, request.Id, err)
		return request, nil
	}
	request.BidStats = models.FoldBids(bids)[request.Id]

	return request, nil
}

// RequestBids returns the bids of one request owned by the customer, oldest first.
func (s *Service) RequestBids(ctx context.Context, customerId string, source models.Source, requestId string) ([]models.Bid, error) {
	request, err := s.ownedRequest(ctx, customerId, source, requestId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.RequestBids: %w", err)
	}

	bids, err := s.fetchBids(ctx, source, []string{request.Id})
	if err != nil {
		return nil, fmt.Errorf("service.Service.RequestBids: %w", err)
	}
	return bids, nil
}

//// Cancellation

// Cancel marks the request CANCELLED in its owning table and records the fee
// and refund. The request status is not checked here, callers gate it.
// The passed request is never modified.
func (s *Service) Cancel(ctx context.Context, customerId string, request models.ServiceRequest) (models.CancellationQuote, error) {
	if customerId == "" {
		return models.CancellationQuote{}, fmt.Errorf("service.Service.Cancel: %w", models.ErrUnauthenticated)
	}
	if !models.ValidSource(request.Source) {
		return models.CancellationQuote{}, fmt.Errorf("service.Service.Cancel: %w: %s", models.ErrInvalidSource, request.Source)
	}

	quote := models.QuoteCancellation(request.Amount, s.fee)
	cancellation := models.Cancellation{
		RequestId:   request.Id,
		Source:      request.Source,
		CustomerId:  customerId,
		Fee:         quote.Fee,
		Refund:      quote.Refund,
		CancelledAt: s.now().UTC(),
	}

	err := s.store.UpdateCancellation(ctx, cancellation)
	if err != nil {
		return models.CancellationQuote{}, fmt.Errorf("service.Service.Cancel: %w", err)
	}
	s.log.Infof("service.Service.Cancel: %s request %s cancelled by %s, fee %.2f, refund %.2f",
		request.Source, request.Id, customerId, quote.Fee, quote.Refund)

	if s.publisher != nil {
		err = s.publisher.RequestCancelled(ctx, cancellation)
		if err != nil {
			s.log.Errorf("service.Service.Cancel: could not publish cancellation of %s: %s", request.Id, err)
		}
	}

	return quote, nil
}

//// Helpers

func (s *Service) checkCustomer(ctx context.Context, customerId string) error {
	if customerId == "" {
		return models.ErrUnauthenticated
	}

	_, ok, err := s.store.CustomerById(ctx, customerId)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrPrimaryFetch, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrNoCustomer, customerId)
	}
	return nil
}

// ownedRequest reads a single request from its owning table, without bid stats.
func (s *Service) ownedRequest(ctx context.Context, customerId string, source models.Source, requestId string) (models.ServiceRequest, error) {
	if !models.ValidSource(source) {
		return models.ServiceRequest{}, fmt.Errorf("%w: %s", models.ErrInvalidSource, source)
	}

	err := s.checkCustomer(ctx, customerId)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	var request models.ServiceRequest
	var ok bool
	switch source {
	case models.SourceRepair:
		var row models.RepairRequest
		row, ok, err = s.store.RepairRequest(ctx, customerId, requestId)
		request = row.Normalize()
	case models.SourceTowing:
		var row models.TowingRequest
		row, ok, err = s.store.TowingRequest(ctx, customerId, requestId)
		request = row.Normalize()
	}
	if err != nil {
		return models.ServiceRequest{}, fmt.Errorf("%w: %w", models.ErrPrimaryFetch, err)
	}
	if !ok {
		return models.ServiceRequest{}, fmt.Errorf("%w: %s/%s", models.ErrNoRequest, source, requestId)
	}
	return request, nil
}

// bidStats folds the bids of both sources concurrently. A failed fetch
// leaves that source without stats.
func (s *Service) bidStats(ctx context.Context, repairIds, towingIds []string) (repair, towing map[string]models.BidStats) {
	var g errgroup.Group

	fold := func(source models.Source, ids []string, dst *map[string]models.BidStats) {
		if len(ids) == 0 {
			return
		}
		g.Go(func() error {
			bids, err := s.fetchBids(ctx, source, ids)
			if err != nil {
				s.log.Errorf("service.Service.bidStats: %s bids: %s", source, err)
				return nil
			}
			*dst = models.FoldBids(bids)
			return nil
		})
	}

	fold(models.SourceRepair, repairIds, &repair)
	fold(models.SourceTowing, towingIds, &towing)
	g.Wait()

	return repair, towing
}

func (s *Service) fetchBids(ctx context.Context, source models.Source, ids []string) ([]models.Bid, error) {
	switch source {
	case models.SourceRepair:
		return s.store.RepairBids(ctx, ids)
	case models.SourceTowing:
		return s.store.TowingBids(ctx, ids)
	}
	return nil, fmt.Errorf("%w: %s", models.ErrInvalidSource, source)
}

func compareRequests(a, b models.ServiceRequest) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	if a.Source != b.Source {
		if a.Source == models.SourceRepair {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.Id, b.Id)
}

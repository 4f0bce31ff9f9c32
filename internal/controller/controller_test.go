package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"roadside/internal/middleware"
	"roadside/internal/models"

	gofakeit "github.com/brianvoe/gofakeit/v7"
)

type fakeService struct {
	requests  []models.ServiceRequest
	bids      []models.Bid
	tabsErr   error
	cancelErr error
	cancelled []models.ServiceRequest
}

func (s *fakeService) Tabs(ctx context.Context, customerId string) (models.Tabs, error) {
	if customerId == "" {
		return models.Tabs{}, models.ErrUnauthenticated
	}
	if s.tabsErr != nil {
		return models.Tabs{}, s.tabsErr
	}
	return models.Partition(s.requests), nil
}

func (s *fakeService) Request(ctx context.Context, customerId string, source models.Source, requestId string) (models.ServiceRequest, error) {
	if s.tabsErr != nil {
		return models.ServiceRequest{}, s.tabsErr
	}
	for _, r := range s.requests {
		if r.Source == source && r.Id == requestId {
			return r, nil
		}
	}
	return models.ServiceRequest{}, fmt.Errorf("fake: %w", models.ErrNoRequest)
}

func (s *fakeService) RequestBids(ctx context.Context, customerId string, source models.Source, requestId string) ([]models.Bid, error) {
	if _, err := s.Request(ctx, customerId, source, requestId); err != nil {
		return nil, err
	}
	return s.bids, nil
}

func (s *fakeService) Cancel(ctx context.Context, customerId string, request models.ServiceRequest) (models.CancellationQuote, error) {
	if s.cancelErr != nil {
		return models.CancellationQuote{}, s.cancelErr
	}
	s.cancelled = append(s.cancelled, request)
	return models.QuoteCancellation(request.Amount, models.DefaultCancellationFee), nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

var (
	activeId    = gofakeit.UUID()
	completedId = gofakeit.UUID()
	progressId  = gofakeit.UUID()
)

func newFakeService() *fakeService {
	amount := 120.0
	return &fakeService{
		requests: []models.ServiceRequest{
			{Id: activeId, Source: models.SourceRepair, Status: "ACTIVE", Amount: &amount},
			{Id: completedId, Source: models.SourceTowing, Status: "COMPLETED"},
			{Id: progressId, Source: models.SourceTowing, Status: "EN_ROUTE"},
		},
		bids: []models.Bid{{Id: gofakeit.UUID(), PostId: activeId, TechnicianName: "Jane", BidAmount: 150, Status: "ACCEPTED"}},
	}
}

// serve routes the request like the router does, with customerId as the authenticated identity.
func serve(c *Controller, method, target, customerId string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", c.Ping)
	mux.HandleFunc("GET /api/requests", c.Requests)
	mux.HandleFunc("GET /api/requests/{source}/{requestId}", c.Request)
	mux.HandleFunc("GET /api/requests/{source}/{requestId}/bids", c.RequestBids)
	mux.HandleFunc("POST /api/requests/{source}/{requestId}/cancel", c.Cancel)

	req := httptest.NewRequest(method, target, nil)
	if customerId != "" {
		req = req.WithContext(middleware.WithCustomerId(req.Context(), customerId))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Could not decode response %q: %s", rec.Body.String(), err)
	}
	return v
}

func TestPing(t *testing.T) {
	rec := serve(NewController(newFakeService(), WithPinger(fakePinger{})), "GET", "/api/ping", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(NewController(newFakeService(), WithPinger(fakePinger{err: errors.New("down")})), "GET", "/api/ping", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when db is down, got %d", rec.Code)
	}
}

func TestRequests(t *testing.T) {
	c := NewController(newFakeService())

	rec := serve(c, "GET", "/api/requests", "customer")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	tabs := decode[models.Tabs](t, rec)
	if tabs.Counts != (models.Counts{Active: 1, Progress: 1, Completed: 1}) {
		t.Errorf("Unexpected counts %+v", tabs.Counts)
	}

	rec = serve(c, "GET", "/api/requests?tab=completed", "customer")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	tab := decode[TabResponse](t, rec)
	if tab.Tab != models.BucketCompleted || len(tab.Requests) != 1 || tab.Requests[0].Id != completedId {
		t.Errorf("Unexpected tab response %+v", tab)
	}

	rec = serve(c, "GET", "/api/requests?tab=archived", "customer")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown tab, got %d", rec.Code)
	}
}

func TestRequestsUnauthenticated(t *testing.T) {
	c := NewController(newFakeService(), WithSignInURL("/auth/signin"))

	rec := serve(c, "GET", "/api/requests", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Redirect != "/auth/signin" {
		t.Errorf("Expected redirect to sign-in, got %+v", resp)
	}
}

func TestRequestsLoadFailure(t *testing.T) {
	svc := newFakeService()
	svc.tabsErr = fmt.Errorf("service: %w: connection refused", models.ErrPrimaryFetch)

	rec := serve(NewController(svc), "GET", "/api/requests", "customer")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Back == "" || resp.Reason != loadErrorText {
		t.Errorf("Expected apology with back link, got %+v", resp)
	}
}

func TestRequest(t *testing.T) {
	c := NewController(newFakeService())

	rec := serve(c, "GET", "/api/requests/repair/"+activeId, "customer")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if r := decode[models.ServiceRequest](t, rec); r.Id != activeId {
		t.Errorf("Unexpected request %+v", r)
	}

	rec = serve(c, "GET", "/api/requests/towing/"+activeId, "customer")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for wrong source, got %d", rec.Code)
	}

	rec = serve(c, "GET", "/api/requests/boat/"+activeId, "customer")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown source, got %d", rec.Code)
	}

	rec = serve(c, "GET", "/api/requests/repair/123", "customer")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestRequestBids(t *testing.T) {
	rec := serve(NewController(newFakeService()), "GET", "/api/requests/repair/"+activeId+"/bids", "customer")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	bids := decode[[]models.Bid](t, rec)
	if len(bids) != 1 || bids[0].TechnicianName != "Jane" {
		t.Errorf("Unexpected bids %+v", bids)
	}
}

func TestCancel(t *testing.T) {
	svc := newFakeService()
	c := NewController(svc)

	rec := serve(c, "POST", "/api/requests/repair/"+activeId+"/cancel", "customer")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[CancelResponse](t, rec)
	if resp.Fee != 5 || resp.Refund != 115 || resp.Status != models.StatusCancelled {
		t.Errorf("Unexpected cancel response %+v", resp)
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0].Id != activeId {
		t.Errorf("Expected the active request to be cancelled, got %+v", svc.cancelled)
	}

	for _, target := range []string{"/api/requests/towing/" + completedId + "/cancel", "/api/requests/towing/" + progressId + "/cancel"} {
		rec = serve(c, "POST", target, "customer")
		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409 for %s, got %d", target, rec.Code)
		}
	}
	if len(svc.cancelled) != 1 {
		t.Error("Expected non-active requests not to reach the service")
	}

	rec = serve(c, "GET", "/api/requests/repair/"+activeId+"/cancel", "customer")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET cancel, got %d", rec.Code)
	}
}

func TestCancelWriteFailure(t *testing.T) {
	svc := newFakeService()
	svc.cancelErr = errors.New("permission denied for table repair_requests")

	rec := serve(NewController(svc), "POST", "/api/requests/repair/"+activeId+"/cancel", "customer")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Reason != "internal server error: permission denied for table repair_requests" {
		t.Errorf("Expected write error to be surfaced, got %q", resp.Reason)
	}
}

func TestValidationMessage(t *testing.T) {
	c := NewController(newFakeService())

	err := c.validate.Struct(RequestPath{Source: "boat", RequestId: activeId})
	want := "invalid value of 'source' path parameter: boat, should be one of: repair, towing"
	if got := validationMessage(err); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	err = c.validate.Struct(RequestPath{Source: "repair"})
	if got := validationMessage(err); got != "missing 'requestId' path parameter" {
		t.Errorf("Unexpected message %q", got)
	}
}

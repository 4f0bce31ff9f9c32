package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"roadside/internal/middleware"
	"roadside/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	loadErrorText = "Sorry, we could not load your service requests right now. Please try again in a moment."
	backURL       = "/"
)

type Service interface {
	Tabs(ctx context.Context, customerId string) (models.Tabs, error)
	Request(ctx context.Context, customerId string, source models.Source, requestId string) (models.ServiceRequest, error)
	RequestBids(ctx context.Context, customerId string, source models.Source, requestId string) ([]models.Bid, error)
	Cancel(ctx context.Context, customerId string, request models.ServiceRequest) (models.CancellationQuote, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	service   Service
	pinger    Pinger
	validate  *validator.Validate
	signInURL string
}

type option func(*Controller)

func WithPinger(p Pinger) option {
	return func(c *Controller) {
		c.pinger = p
	}
}

func WithSignInURL(url string) option {
	return func(c *Controller) {
		c.signInURL = url
	}
}

func NewController(service Service, opts ...option) *Controller {
	c := &Controller{
		service:   service,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		signInURL: "/signin",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	if c.pinger != nil {
		if err := c.pinger.Ping(r.Context()); err != nil {
			log.Println("controller.Controller.Ping:", err)
			c.errorResponse(w, http.StatusServiceUnavailable, "database is unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Requests

// GET /api/requests
func (c *Controller) Requests(w http.ResponseWriter, r *http.Request) {
	query := TabsQuery{Tab: r.URL.Query().Get("tab")}
	if err := c.validate.Struct(query); err != nil {
		c.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	tabs, err := c.service.Tabs(r.Context(), middleware.CustomerId(r.Context()))
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	if query.Tab == "" {
		c.marshalResponse(w, tabs)
		return
	}

	bucket := models.Bucket(query.Tab)
	c.marshalResponse(w, TabResponse{
		Tab:      bucket,
		Requests: tabs.Bucket(bucket),
		Counts:   tabs.Counts,
	})
}

// GET /api/requests/{source}/{requestId}
func (c *Controller) Request(w http.ResponseWriter, r *http.Request) {
	path, ok := c.requestPath(w, r)
	if !ok {
		return
	}

	request, err := c.service.Request(r.Context(), middleware.CustomerId(r.Context()), models.Source(path.Source), path.RequestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

// GET /api/requests/{source}/{requestId}/bids
func (c *Controller) RequestBids(w http.ResponseWriter, r *http.Request) {
	path, ok := c.requestPath(w, r)
	if !ok {
		return
	}

	bids, err := c.service.RequestBids(r.Context(), middleware.CustomerId(r.Context()), models.Source(path.Source), path.RequestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, bids)
}

// POST /api/requests/{source}/{requestId}/cancel
func (c *Controller) Cancel(w http.ResponseWriter, r *http.Request) {
	path, ok := c.requestPath(w, r)
	if !ok {
		return
	}
	customerId := middleware.CustomerId(r.Context())

	request, err := c.service.Request(r.Context(), customerId, models.Source(path.Source), path.RequestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	if !models.Cancellable(request.Status) {
		c.serviceErrorResponse(w, fmt.Errorf("%w: status is %s", models.ErrNotCancellable, request.Status))
		return
	}

	quote, err := c.service.Cancel(r.Context(), customerId, request)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, CancelResponse{
		RequestId: request.Id,
		Source:    request.Source,
		Status:    models.StatusCancelled,
		Fee:       quote.Fee,
		Refund:    quote.Refund,
	})
}

//// Helpers

func (c *Controller) requestPath(w http.ResponseWriter, r *http.Request) (RequestPath, bool) {
	path := RequestPath{
		Source:    r.PathValue("source"),
		RequestId: r.PathValue("requestId"),
	}
	if err := c.validate.Struct(path); err != nil {
		c.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return path, false
	}
	return path, true
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	c.writeError(w, status, ErrorResponse{Reason: text})
}

func (c *Controller) writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("controller.Controller.writeError: %s", err)
		return
	}

	_, err = w.Write(data)
	if err != nil {
		log.Printf("controller.Controller.writeError: %s", err)
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrNoCustomer):
		c.writeError(w, http.StatusUnauthorized, ErrorResponse{Reason: "please sign in to see your requests", Redirect: c.signInURL})
	case errors.Is(err, models.ErrPrimaryFetch):
		log.Println("controller:", err)
		c.writeError(w, http.StatusBadGateway, ErrorResponse{Reason: loadErrorText, Back: backURL})
	case errors.Is(err, models.ErrInvalidSource):
		c.errorResponse(w, http.StatusBadRequest, "unknown request source")
	case errors.Is(err, models.ErrNoRequest):
		c.errorResponse(w, http.StatusNotFound, "requested service request does not exist or unacessible")
	case errors.Is(err, models.ErrNotCancellable):
		c.errorResponse(w, http.StatusConflict, "only active requests can be cancelled")
	default:
		log.Println("controller:", err)
		c.errorResponse(w, http.StatusInternalServerError, "internal server error: "+err.Error())
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marhsal response data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(d)
	if err != nil {
		log.Printf("controller.Controller.marshalResponse: %s", err)
	}
}

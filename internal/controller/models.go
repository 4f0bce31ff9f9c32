package controller

import (
	"errors"
	"fmt"
	"strings"

	"roadside/internal/models"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Reason   string `json:"reason"`
	Redirect string `json:"redirect,omitempty"`
	Back     string `json:"back,omitempty"`
}

type RequestPath struct {
	Source    string `validate:"required,oneof=repair towing"`
	RequestId string `validate:"required,uuid"`
}

type TabsQuery struct {
	Tab string `validate:"omitempty,oneof=active progress completed"`
}

type TabResponse struct {
	Tab      models.Bucket           `json:"tab"`
	Requests []models.ServiceRequest `json:"requests"`
	Counts   models.Counts           `json:"counts"`
}

// The request must be re-fetched to observe its new state.
type CancelResponse struct {
	RequestId string        `json:"requestId"`
	Source    models.Source `json:"source"`
	Status    string        `json:"status"`
	Fee       float64       `json:"fee"`
	Refund    float64       `json:"refund"`
}

var paramNames = map[string]string{
	"Source":    "'source' path parameter",
	"RequestId": "'requestId' path parameter",
	"Tab":       "'tab' query parameter",
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := paramNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "oneof":
			parts = append(parts, fmt.Sprintf("invalid value of %s: %v, should be one of: %s", name, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "required":
			parts = append(parts, fmt.Sprintf("missing %s", name))
		default:
			parts = append(parts, fmt.Sprintf("invalid value of %s: %v", name, fe.Value()))
		}
	}
	return strings.Join(parts, "; ")
}

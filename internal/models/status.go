package models

import "strings"

var statusBuckets = map[string]Bucket{
	"ACTIVE":    BucketActive,
	"OPEN":      BucketActive,
	"REQUESTED": BucketActive,

	"IN_PROGRESS":    BucketProgress,
	"ASSIGNED":       BucketProgress,
	"ACCEPTED":       BucketProgress,
	"CONFIRMED":      BucketProgress,
	"EN_ROUTE":       BucketProgress,
	"ARRIVED":        BucketProgress,
	"SCHEDULED":      BucketProgress,
	"REVIEW_PENDING": BucketProgress,

	"COMPLETED": BucketCompleted,
	"CANCELLED": BucketCompleted,
	"FULFILLED": BucketCompleted,
	"CLOSED":    BucketCompleted,
}

const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
)

// Classify maps a request status to its tab. Unknown statuses are active.
func Classify(status string) Bucket {
	b, ok := statusBuckets[strings.ToUpper(strings.TrimSpace(status))]
	if !ok {
		return BucketActive
	}
	return b
}

func IsTerminal(status string) bool {
	return Classify(status) == BucketCompleted
}

// Cancellable reports whether the customer may cancel a request in this status.
func Cancellable(status string) bool {
	return strings.ToUpper(strings.TrimSpace(status)) == StatusActive
}

type Counts struct {
	Active    int `json:"active"`
	Progress  int `json:"progress"`
	Completed int `json:"completed"`
}

type Tabs struct {
	Active    []ServiceRequest `json:"active"`
	Progress  []ServiceRequest `json:"progress"`
	Completed []ServiceRequest `json:"completed"`
	Counts    Counts           `json:"counts"`
}

// Partition splits requests into tabs keeping their relative order.
func Partition(requests []ServiceRequest) Tabs {
	tabs := Tabs{
		Active:    []ServiceRequest{},
		Progress:  []ServiceRequest{},
		Completed: []ServiceRequest{},
	}
	for _, r := range requests {
		switch Classify(r.Status) {
		case BucketProgress:
			tabs.Progress = append(tabs.Progress, r)
		case BucketCompleted:
			tabs.Completed = append(tabs.Completed, r)
		default:
			tabs.Active = append(tabs.Active, r)
		}
	}
	tabs.Counts = Counts{
		Active:    len(tabs.Active),
		Progress:  len(tabs.Progress),
		Completed: len(tabs.Completed),
	}
	return tabs
}

func (t Tabs) Bucket(b Bucket) []ServiceRequest {
	switch b {
	case BucketProgress:
		return t.Progress
	case BucketCompleted:
		return t.Completed
	default:
		return t.Active
	}
}

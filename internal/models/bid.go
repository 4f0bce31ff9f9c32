package models

import (
	"strings"
	"time"
)

const (
	BidPending  = "PENDING"
	BidAccepted = "ACCEPTED"
	BidRejected = "REJECTED"
	BidDeclined = "DECLINED"
)

type Bid struct {
	Id             string    `json:"id"`
	PostId         string    `json:"postId"`
	Source         Source    `json:"source"`
	TechnicianName string    `json:"technicianName"`
	BidAmount      float64   `json:"bidAmount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NormalizedStatus upper-cases the status. Missing or unrecognized
// statuses count as PENDING.
func (b Bid) NormalizedStatus() string {
	s := strings.ToUpper(strings.TrimSpace(b.Status))
	switch s {
	case BidPending, BidAccepted, BidRejected, BidDeclined:
		return s
	default:
		return BidPending
	}
}

type AcceptedBid struct {
	TechnicianName string  `json:"technicianName"`
	Amount         float64 `json:"amount"`
}

type BidStats struct {
	Total    int          `json:"total"`
	Pending  int          `json:"pending"`
	Accepted *AcceptedBid `json:"accepted"`

	// Number of ACCEPTED bids folded. More than one means upstream data is inconsistent.
	AcceptedCount int `json:"-"`
}

// FoldBids groups bids by PostId. Bids are expected oldest first: when
// several are ACCEPTED the last one is reported.
func FoldBids(bids []Bid) map[string]BidStats {
	stats := make(map[string]BidStats)
	for _, bid := range bids {
		s := stats[bid.PostId]
		s.Total++
		switch bid.NormalizedStatus() {
		case BidPending:
			s.Pending++
		case BidAccepted:
			s.AcceptedCount++
			s.Accepted = &AcceptedBid{
				TechnicianName: bid.TechnicianName,
				Amount:         bid.BidAmount,
			}
		}
		stats[bid.PostId] = s
	}
	return stats
}

package models

// Source names the table family a request or bid comes from.
type Source string

const (
	SourceRepair Source = "repair"
	SourceTowing Source = "towing"
)

func ValidSource(s Source) bool {
	switch s {
	case SourceRepair, SourceTowing:
		return true
	default:
		return false
	}
}

type Bucket string

const (
	BucketActive    Bucket = "active"
	BucketProgress  Bucket = "progress"
	BucketCompleted Bucket = "completed"
)

func ValidBucket(b Bucket) bool {
	switch b {
	case BucketActive, BucketProgress, BucketCompleted:
		return true
	default:
		return false
	}
}

type PricingType string

const (
	PricingFixed PricingType = "fixed"
	PricingBid   PricingType = "bid"
)

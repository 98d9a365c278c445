package catalog

import (
	"marketplace-bulk-api/internal/model"
)

// Batch is a group of listings sent in one items_batch call.
type Batch struct {
	Listings  []*model.Listing
	SizeBytes int
}

// Oversized reports whether the batch exceeds maxBytes. This only happens
// for a single listing that is too large on its own.
func (b Batch) Oversized(maxBytes int) bool {
	return maxBytes > 0 && b.SizeBytes > maxBytes
}

// MakeBatches packs listings, in order, into batches of at most maxCount
// items and maxBytes estimated bytes. A batch is closed before adding a
// listing that would break either bound. A listing larger than maxBytes on
// its own still gets a batch of its own. Non-positive bounds are unlimited.
func MakeBatches(listings []*model.Listing, maxCount, maxBytes int) []Batch {
	var (
		batches []Batch
		current Batch
	)

	for _, l := range listings {
		size := EstimateSize(l)

		full := maxCount > 0 && len(current.Listings) >= maxCount
		tooBig := maxBytes > 0 && current.SizeBytes+size > maxBytes
		if (full || tooBig) && len(current.Listings) > 0 {
			batches = append(batches, current)
			current = Batch{}
		}

		current.Listings = append(current.Listings, l)
		current.SizeBytes += size
	}

	if len(current.Listings) > 0 {
		batches = append(batches, current)
	}
	return batches
}

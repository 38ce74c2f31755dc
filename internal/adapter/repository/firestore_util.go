package repository

import (
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skipped/pkg/logger"
)

const (
	listingsCollection        = "listings"
	offersCollection          = "offers"
	offerEventsCollection     = "events"
	offerQuotaCollection      = "offer_quota"
	transactionsCollection    = "transactions"
	transactionLogsCollection = "transaction_logs"
	paymentIntentsCollection  = "payment_intents"
	disputesCollection        = "disputes"
	fileMetadataCollection    = "file_metadata"
)

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// collect decodes every document of iter into T. Documents that fail to decode are logged and skipped.
func collect[T any](iter *firestore.DocumentIterator) ([]*T, error) {
	defer iter.Stop()

	var items []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var item T
		if err := doc.DataTo(&item); err != nil {
			logger.Error("Failed to parse document %s: %v", doc.Ref.Path, err)
			continue
		}
		items = append(items, &item)
	}
	return items, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortNewestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}

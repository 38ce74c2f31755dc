// Package memory keeps every repository in process memory behind one lock.
// It backs local development and the usecase and handler tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"skipped/internal/domain/entity"
)

type Store struct {
	mu sync.Mutex

	listings     map[string]*entity.Listing
	offers       map[string]*entity.Offer
	offerEvents  map[string][]*entity.OfferEvent
	transactions map[string]*entity.Transaction
	byIntent     map[string]string
	logs         map[string][]*entity.TransactionLog
	disputes     map[string]*entity.Dispute
	files        map[string]*entity.FileMetadata
}

func NewStore() *Store {
	return &Store{
		listings:     map[string]*entity.Listing{},
		offers:       map[string]*entity.Offer{},
		offerEvents:  map[string][]*entity.OfferEvent{},
		transactions: map[string]*entity.Transaction{},
		byIntent:     map[string]string{},
		logs:         map[string][]*entity.TransactionLog{},
		disputes:     map[string]*entity.Dispute{},
		files:        map[string]*entity.FileMetadata{},
	}
}

func (s *Store) Listings() *ListingRepository { return &ListingRepository{s: s} }

func (s *Store) Offers() *OfferRepository { return &OfferRepository{s: s} }

func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s: s} }

func (s *Store) Disputes() *DisputeRepository { return &DisputeRepository{s: s} }

func (s *Store) Files() *FileMetadataRepository { return &FileMetadataRepository{s: s} }

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

// sortNewestFirst orders by created time descending, breaking ties on ID.
func sortNewestFirst[T any](items []T, created func(T) time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) < id(items[j])
	})
}

package entity

import (
	"time"
)

const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"

	ResolutionRefundBuyer   = "refund_buyer"
	ResolutionReleaseSeller = "release_seller"
)

type Dispute struct {
	ID            string `json:"id" firestore:"id"`
	TransactionID string `json:"transaction_id" firestore:"transactionId"`
	ListingID     string `json:"listing_id" firestore:"listingId"`
	BuyerID       string `json:"buyer_id" firestore:"buyerId"`
	SellerID      string `json:"seller_id" firestore:"sellerId"`
	ReporterID    string `json:"reporter_id" firestore:"reporterId"`
	ReporterRole  string `json:"reporter_role" firestore:"reporterRole"` // buyer, seller

	Reason      string `json:"reason" firestore:"reason"` // not_received, not_as_described, damaged, other
	Description string `json:"description" firestore:"description"`

	Evidence []DisputeEvidence `json:"evidence" firestore:"evidence"`

	Status          string `json:"status" firestore:"status"`
	Resolution      string `json:"resolution,omitempty" firestore:"resolution,omitempty"`
	ResolutionNotes string `json:"resolution_notes,omitempty" firestore:"resolutionNotes,omitempty"`
	ResolvedBy      string `json:"resolved_by,omitempty" firestore:"resolvedBy,omitempty"`

	CreatedAt  time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time  `json:"updated_at" firestore:"updatedAt"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`
}

func (d *Dispute) IsParticipant(userID string) bool {
	return userID == d.BuyerID || userID == d.SellerID
}

type DisputeEvidence struct {
	ID         string    `json:"id" firestore:"id"`
	FileURL    string    `json:"file_url" firestore:"fileUrl"`
	Filename   string    `json:"filename" firestore:"filename"`
	FileType   string    `json:"file_type" firestore:"fileType"`
	Note       string    `json:"note,omitempty" firestore:"note,omitempty"`
	UploadedBy string    `json:"uploaded_by" firestore:"uploadedBy"`
	UploadedAt time.Time `json:"uploaded_at" firestore:"uploadedAt"`
}

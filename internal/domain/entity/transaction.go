package entity

import (
	"time"
)

const (
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Order statuses. Funds are held by the platform until the order reaches completed.
const (
	OrderStatusPaid               = "paid"
	OrderStatusDispatched         = "dispatched"
	OrderStatusReadyForCollection = "ready_for_collection"
	OrderStatusCompleted          = "completed"
	OrderStatusDisputed           = "disputed"
	OrderStatusRefunded           = "refunded"
)

const (
	DeliveryMethodCollection = "collection"
	DeliveryMethodDelivery   = "delivery"

	DeliveryTypeLocal   = "local"
	DeliveryTypeCourier = "courier"
)

var orderTransitions = map[string][]string{
	OrderStatusPaid:               {OrderStatusDispatched, OrderStatusReadyForCollection, OrderStatusDisputed},
	OrderStatusDispatched:         {OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusReadyForCollection: {OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusDisputed:           {OrderStatusCompleted, OrderStatusRefunded},
}

func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID              string  `json:"id" firestore:"id"`
	PaymentIntentID string  `json:"payment_intent_id" firestore:"paymentIntentId"`
	ListingID       string  `json:"listing_id" firestore:"listingId"`
	OfferID         string  `json:"offer_id,omitempty" firestore:"offerId,omitempty"`
	BuyerID         string  `json:"buyer_id" firestore:"buyerId"`
	SellerID        string  `json:"seller_id" firestore:"sellerId"`
	ItemAmount      float64 `json:"item_amount" firestore:"itemAmount"`
	DeliveryAmount  float64 `json:"delivery_amount" firestore:"deliveryAmount"`
	PlatformFee     float64 `json:"platform_fee" firestore:"platformFee"`
	TotalAmount     float64 `json:"total_amount" firestore:"totalAmount"`
	AmountMinor     int64   `json:"amount_minor" firestore:"amountMinor"`
	Currency        string  `json:"currency" firestore:"currency"`

	DeliveryMethod  string `json:"delivery_method" firestore:"deliveryMethod"`
	DeliveryType    string `json:"delivery_type,omitempty" firestore:"deliveryType,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty" firestore:"deliveryAddress,omitempty"`

	PaymentStatus string  `json:"payment_status" firestore:"paymentStatus"`
	OrderStatus   string  `json:"order_status" firestore:"orderStatus"`
	CarbonSavedKg float64 `json:"carbon_saved_kg" firestore:"carbonSavedKg"`

	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updatedAt"`
	DispatchedAt  *time.Time `json:"dispatched_at,omitempty" firestore:"dispatchedAt,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	AutoReleaseAt *time.Time `json:"auto_release_at,omitempty" firestore:"autoReleaseAt,omitempty"`
}

func (t *Transaction) RoleOf(userID string) string {
	switch userID {
	case t.BuyerID:
		return RoleBuyer
	case t.SellerID:
		return RoleSeller
	default:
		return ""
	}
}

func (t *Transaction) IsParticipant(userID string) bool {
	return t.RoleOf(userID) != ""
}

type TransactionLog struct {
	ID            string    `json:"id" firestore:"id"`
	TransactionID string    `json:"transaction_id" firestore:"transactionId"`
	Status        string    `json:"status" firestore:"status"`
	Notes         string    `json:"notes" firestore:"notes"`
	CreatedBy     string    `json:"created_by" firestore:"createdBy"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}

type TransactionFilter struct {
	UserID string
	Role   string
	Status string
	Limit  int
	Offset int
}

package entity

import (
	"time"
)

const (
	ListingStatusActive  = "active"
	ListingStatusSold    = "sold"
	ListingStatusRemoved = "removed"
)

type Listing struct {
	ID          string `json:"id" firestore:"id"`
	SellerID    string `json:"seller_id" firestore:"sellerId"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
	Category    string `json:"category" firestore:"category"`
	Material    string `json:"material" firestore:"material"`
	Condition   string `json:"condition" firestore:"condition"` // new, like_new, used, salvaged
	Quantity    int    `json:"quantity" firestore:"quantity"`
	Unit        string `json:"unit" firestore:"unit"`

	Price  float64 `json:"price" firestore:"price"`
	Status string  `json:"status" firestore:"status"`

	CollectionAvailable bool    `json:"collection_available" firestore:"collectionAvailable"`
	DeliveryAvailable   bool    `json:"delivery_available" firestore:"deliveryAvailable"`
	DeliveryCharge      float64 `json:"delivery_charge" firestore:"deliveryCharge"`
	CourierDeliveryCost float64 `json:"courier_delivery_cost" firestore:"courierDeliveryCost"`

	WeightKg float64 `json:"weight_kg" firestore:"weightKg"`
	LengthCm float64 `json:"length_cm" firestore:"lengthCm"`
	WidthCm  float64 `json:"width_cm" firestore:"widthCm"`
	HeightCm float64 `json:"height_cm" firestore:"heightCm"`

	Location string   `json:"location" firestore:"location"`
	Postcode string   `json:"postcode" firestore:"postcode"`
	Images   []string `json:"images" firestore:"images"`

	CarbonSavedKg float64 `json:"carbon_saved_kg" firestore:"carbonSavedKg"`

	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time  `json:"updated_at" firestore:"updatedAt"`
	SoldAt    *time.Time `json:"sold_at,omitempty" firestore:"soldAt,omitempty"`
}

func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// ListingFilter drives the public search. Zero values mean "no constraint".
type ListingFilter struct {
	Query    string
	Category string
	Material string
	Status   string
	SellerID string
	MinPrice float64
	MaxPrice float64
	Limit    int
	Offset   int
}

package model

import (
	"messbook/shared/model"

	"github.com/lib/pq"
)

const (
	TableName  = "listings"
	EntityName = "listing"

	FieldID          = "id"
	FieldOwnerID     = "owner_id"
	FieldName        = "name"
	FieldLocation    = "location"
	FieldCategory    = "category"
	FieldImages      = "images"
	FieldSingleSeats = "single_seats"
	FieldSinglePrice = "single_price"
	FieldDoubleSeats = "double_seats"
	FieldDoublePrice = "double_price"
	FieldRating      = "rating"
	FieldIsActive    = "is_active"
)

const (
	CategoryBoys  = "boys"
	CategoryGirls = "girls"
)

// Listing is a mess unit offering single and double room seats.
type Listing struct {
	ID           string         `db:"id"`
	OwnerID      string         `db:"owner_id"`
	Name         string         `db:"name"`
	Description  string         `db:"description"`
	Location     string         `db:"location"`
	Category     string         `db:"category"`
	Address      string         `db:"address"`
	ContactPhone string         `db:"contact_phone"`
	ContactEmail string         `db:"contact_email"`
	Amenities    pq.StringArray `db:"amenities"`
	Images       pq.StringArray `db:"images"`
	SingleSeats  int            `db:"single_seats"`
	SinglePrice  float64        `db:"single_price"`
	DoubleSeats  int            `db:"double_seats"`
	DoublePrice  float64        `db:"double_price"`
	Rating       float64        `db:"rating"`
	IsActive     bool           `db:"is_active"`
	OwnerName    string         `db:"owner_name" table:"users" column:"name"`
	OwnerEmail   string         `db:"owner_email" table:"users" column:"email"`
	model.Metadata
}

func (Listing) GetJoinQuery() string {
	return "LEFT JOIN users ON users.id = listings.owner_id"
}

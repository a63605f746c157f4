package dto

import (
	"messbook/internal/domains/listing/model"
	"messbook/shared"
	gDto "messbook/shared/dto"
	gModel "messbook/shared/model"
	"messbook/shared/timezone"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type CreateListingRequest struct {
	Name         string   `json:"name"          validate:"required,max=150"`
	Description  string   `json:"description"   validate:"omitempty,max=2000"`
	Location     string   `json:"location"      validate:"required,max=100"`
	Category     string   `json:"category"      validate:"required,oneof=boys girls"`
	Address      string   `json:"address"       validate:"required,max=255"`
	ContactPhone string   `json:"contact_phone" validate:"omitempty,max=20"`
	ContactEmail string   `json:"contact_email" validate:"omitempty,email"`
	Amenities    []string `json:"amenities"     validate:"omitempty,dive,max=50"`
	SingleSeats  int      `json:"single_seats"  validate:"min=0"`
	SinglePrice  float64  `json:"single_price"  validate:"min=0"`
	DoubleSeats  int      `json:"double_seats"  validate:"min=0"`
	DoublePrice  float64  `json:"double_price"  validate:"min=0"`
}

func (c *CreateListingRequest) ToModel(ownerID string) model.Listing {
	amenities := c.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	return model.Listing{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         c.Name,
		Description:  c.Description,
		Location:     strings.ToLower(strings.TrimSpace(c.Location)),
		Category:     c.Category,
		Address:      c.Address,
		ContactPhone: c.ContactPhone,
		ContactEmail: c.ContactEmail,
		Amenities:    pq.StringArray(amenities),
		Images:       pq.StringArray{},
		SingleSeats:  c.SingleSeats,
		SinglePrice:  c.SinglePrice,
		DoubleSeats:  c.DoubleSeats,
		DoublePrice:  c.DoublePrice,
		IsActive:     true,
		Metadata:     gModel.NewMetadata(timezone.Now(), ownerID),
	}
}

// UpdateListingRequest is a partial update; pointer fields let seats and prices be set to zero.
type UpdateListingRequest struct {
	Name         string         `db:"name"          json:"name"          validate:"omitempty,max=150"`
	Description  string         `db:"description"   json:"description"   validate:"omitempty,max=2000"`
	Location     string         `db:"location"      json:"location"      validate:"omitempty,max=100"`
	Category     string         `db:"category"      json:"category"      validate:"omitempty,oneof=boys girls"`
	Address      string         `db:"address"       json:"address"       validate:"omitempty,max=255"`
	ContactPhone string         `db:"contact_phone" json:"contact_phone" validate:"omitempty,max=20"`
	ContactEmail string         `db:"contact_email" json:"contact_email" validate:"omitempty,email"`
	Amenities    pq.StringArray `db:"amenities"     json:"amenities"     validate:"omitempty,dive,max=50"`
	SingleSeats  *int           `db:"single_seats"  json:"single_seats"  validate:"omitempty,min=0"`
	SinglePrice  *float64       `db:"single_price"  json:"single_price"  validate:"omitempty,min=0"`
	DoubleSeats  *int           `db:"double_seats"  json:"double_seats"  validate:"omitempty,min=0"`
	DoublePrice  *float64       `db:"double_price"  json:"double_price"  validate:"omitempty,min=0"`
}

// Normalize lowercases the location so filters match what Create stores.
func (u *UpdateListingRequest) Normalize() {
	u.Location = strings.ToLower(strings.TrimSpace(u.Location))
}

type UpdateRatingRequest struct {
	Rating *float64 `db:"rating" json:"rating" validate:"required,min=0,max=5"`
}

type DeleteListingRequest struct {
	IsActive *bool `db:"is_active"`
}

type UpdateImagesRequest struct {
	Images pq.StringArray `db:"images"`
}

type ListingFilter struct {
	Location string
	Category string
}

// ToFilterGroup restricts to active listings plus any location/category given.
func (f ListingFilter) ToFilterGroup() gDto.FilterGroup {
	filters := []any{
		gDto.Filter{Field: model.FieldIsActive, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName},
	}

	if location := strings.ToLower(strings.TrimSpace(f.Location)); location != "" {
		filters = append(filters, gDto.Filter{
			Field: model.FieldLocation, Value: location, Operator: gDto.FilterOperatorEq, Table: model.TableName,
		})
	}

	if f.Category != "" {
		filters = append(filters, gDto.Filter{
			Field: model.FieldCategory, Value: f.Category, Operator: gDto.FilterOperatorEq, Table: model.TableName,
		})
	}

	return gDto.FilterGroup{Filters: filters}
}

type ListingResponse struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	OwnerName    string   `json:"owner_name"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	Category     string   `json:"category"`
	Address      string   `json:"address"`
	ContactPhone string   `json:"contact_phone"`
	ContactEmail string   `json:"contact_email"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images"`
	SingleSeats  int      `json:"single_seats"`
	SinglePrice  float64  `json:"single_price"`
	DoubleSeats  int      `json:"double_seats"`
	DoublePrice  float64  `json:"double_price"`
	Rating       float64  `json:"rating"`
	IsActive     bool     `json:"is_active"`
	gDto.Metadata
}

func (r *ListingResponse) FromModel(model model.Listing) {
	r.ID = model.ID
	r.OwnerID = model.OwnerID
	r.OwnerName = model.OwnerName
	r.Name = model.Name
	r.Description = model.Description
	r.Location = model.Location
	r.Category = model.Category
	r.Address = model.Address
	r.ContactPhone = model.ContactPhone
	r.ContactEmail = model.ContactEmail
	r.Amenities = nonNil(model.Amenities)
	r.Images = nonNil(model.Images)
	r.SingleSeats = model.SingleSeats
	r.SinglePrice = model.SinglePrice
	r.DoubleSeats = model.DoubleSeats
	r.DoublePrice = model.DoublePrice
	r.Rating = model.Rating
	r.IsActive = model.IsActive
	r.Metadata.FromModel(model.Metadata)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}

type GetListingsResponse struct {
	Listings  []ListingResponse `json:"listings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetListingsResponse) FromModels(models []model.Listing, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Listings = make([]ListingResponse, len(models))
	for i, mod := range models {
		r.Listings[i].FromModel(mod)
	}
}

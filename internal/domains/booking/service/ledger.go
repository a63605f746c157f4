package service

//go:generate go run go.uber.org/mock/mockgen -source=./ledger.go -destination=../mocks/ledger_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"messbook/infras/otel"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/repository"
	listingModel "messbook/internal/domains/listing/model"
	listingRepository "messbook/internal/domains/listing/repository"
	"messbook/shared"
	"messbook/shared/constant"
	"messbook/shared/failure"
	gRepo "messbook/shared/repository"

	"github.com/rs/zerolog/log"
)

// SeatLedger derives free seats from listing totals and the orders that hold a seat.
// Nothing is cached and nothing is written.
type SeatLedger interface {
	AvailableSeats(ctx context.Context, listingID string) (dto.SeatAvailability, error)
	// EnsureAvailable returns the listing when roomType still has a free seat.
	EnsureAvailable(ctx context.Context, listingID string, roomType model.RoomType) (listingModel.Listing, error)
}

type ledgerImpl struct {
	listings listingRepository.Listing
	orders   repository.Order
	otel     otel.Otel
}

func NewSeatLedger(listings listingRepository.Listing, orders repository.Order, otel otel.Otel) SeatLedger {
	return &ledgerImpl{
		listings: listings,
		orders:   orders,
		otel:     otel,
	}
}

func (s *ledgerImpl) AvailableSeats(ctx context.Context, listingID string) (res dto.SeatAvailability, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AvailableSeats")
	defer scope.End()
	defer scope.TraceIfError(err)

	_, res, err = s.snapshot(ctx, listingID)

	return res, err
}

func (s *ledgerImpl) EnsureAvailable(ctx context.Context, listingID string, roomType model.RoomType) (listing listingModel.Listing, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".EnsureAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	listing, seats, err := s.snapshot(ctx, listingID)
	if err != nil {
		return listing, err
	}

	if seats.Available(roomType) <= 0 {
		return listing, failure.NoAvailability(fmt.Sprintf("no %s seats available", roomType)) // nolint:wrapcheck
	}

	return listing, nil
}

func (s *ledgerImpl) snapshot(ctx context.Context, listingID string) (listingModel.Listing, dto.SeatAvailability, error) {
	var res dto.SeatAvailability

	listing, err := s.listings.Get(ctx, shared.FilterByID(listingID, listingModel.FieldID, listingModel.TableName))
	if errors.Is(err, gRepo.ErrNotFound) || (err == nil && !listing.IsActive) {
		return listing, res, failure.NotFound("listing not found") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("failed to get listing")

		return listing, res, fmt.Errorf("failed to get listing: %w", err)
	}

	single, err := s.orders.CountActive(ctx, listingID, model.RoomTypeSingle)
	if err != nil {
		log.Error().Err(err).Msg("failed to count single seat orders")

		return listing, res, fmt.Errorf("failed to count single seat orders: %w", err)
	}

	double, err := s.orders.CountActive(ctx, listingID, model.RoomTypeDouble)
	if err != nil {
		log.Error().Err(err).Msg("failed to count double seat orders")

		return listing, res, fmt.Errorf("failed to count double seat orders: %w", err)
	}

	res = dto.SeatAvailability{
		ListingID:       listingID,
		SingleAvailable: max(listing.SingleSeats-single, 0),
		DoubleAvailable: max(listing.DoubleSeats-double, 0),
		TotalSingle:     listing.SingleSeats,
		TotalDouble:     listing.DoubleSeats,
	}

	return listing, res, nil
}

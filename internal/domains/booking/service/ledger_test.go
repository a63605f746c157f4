package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"messbook/infras/otel/mocks"
	bookingMocks "messbook/internal/domains/booking/mocks"
	"messbook/internal/domains/booking/model"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/service"
	listingMocks "messbook/internal/domains/listing/mocks"
	listingModel "messbook/internal/domains/listing/model"
	"messbook/shared/failure"
	gRepo "messbook/shared/repository"
)

func newLedger(t *testing.T) (service.SeatLedger, *listingMocks.MockListing, *bookingMocks.MockOrder) {
	ctrl := gomock.NewController(t)

	listings := listingMocks.NewMockListing(ctrl)
	orders := bookingMocks.NewMockOrder(ctrl)

	return service.NewSeatLedger(listings, orders, mocks.NewOtel()), listings, orders
}

func TestSeatLedger_AvailableSeats(t *testing.T) {
	t.Run("totals minus active orders per tier", func(t *testing.T) {
		ledger, listings, orders := newLedger(t)

		listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Listing{ID: listingID, SingleSeats: 4, DoubleSeats: 2, IsActive: true}, nil)
		orders.EXPECT().CountActive(gomock.Any(), listingID, model.RoomTypeSingle).Return(1, nil)
		orders.EXPECT().CountActive(gomock.Any(), listingID, model.RoomTypeDouble).Return(2, nil)

		seats, err := ledger.AvailableSeats(context.Background(), listingID)
		require.NoError(t, err)
		assert.Equal(t, dto.SeatAvailability{
			ListingID:       listingID,
			SingleAvailable: 3,
			DoubleAvailable: 0,
			TotalSingle:     4,
			TotalDouble:     2,
		}, seats)
	})

	t.Run("seats reduced below bookings never go negative", func(t *testing.T) {
		ledger, listings, orders := newLedger(t)

		listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Listing{ID: listingID, SingleSeats: 1, IsActive: true}, nil)
		orders.EXPECT().CountActive(gomock.Any(), gomock.Any(), model.RoomTypeSingle).Return(3, nil)
		orders.EXPECT().CountActive(gomock.Any(), gomock.Any(), model.RoomTypeDouble).Return(0, nil)

		seats, err := ledger.AvailableSeats(context.Background(), listingID)
		require.NoError(t, err)
		assert.Equal(t, 0, seats.SingleAvailable)
	})

	t.Run("inactive listing is not found", func(t *testing.T) {
		ledger, listings, _ := newLedger(t)
		listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Listing{ID: listingID, SingleSeats: 4}, nil)

		_, err := ledger.AvailableSeats(context.Background(), listingID)
		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})

	t.Run("unknown listing", func(t *testing.T) {
		ledger, listings, _ := newLedger(t)
		listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Listing{}, gRepo.ErrNotFound)

		_, err := ledger.AvailableSeats(context.Background(), listingID)
		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})

	t.Run("count failure", func(t *testing.T) {
		ledger, listings, orders := newLedger(t)
		listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Listing{ID: listingID, IsActive: true}, nil)
		orders.EXPECT().CountActive(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, errors.New("connection reset"))

		_, err := ledger.AvailableSeats(context.Background(), listingID)
		assert.Error(t, err)
	})
}

func TestSeatLedger_EnsureAvailable(t *testing.T) {
	ledger, listings, orders := newLedger(t)

	listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Listing{ID: listingID, SingleSeats: 2, DoubleSeats: 1, IsActive: true}, nil)
	orders.EXPECT().CountActive(gomock.Any(), gomock.Any(), model.RoomTypeSingle).Return(0, nil)
	orders.EXPECT().CountActive(gomock.Any(), gomock.Any(), model.RoomTypeDouble).Return(1, nil)

	_, err := ledger.EnsureAvailable(context.Background(), listingID, model.RoomTypeDouble)
	assert.Equal(t, failure.KindNoAvailability, failure.GetKind(err))
	assert.Equal(t, "no double seats available", err.Error())
}

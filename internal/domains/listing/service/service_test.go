package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"messbook/config"
	"messbook/infras/otel/mocks"
	s3Mocks "messbook/infras/s3/mocks"
	listingMocks "messbook/internal/domains/listing/mocks"
	"messbook/internal/domains/listing/model"
	"messbook/internal/domains/listing/model/dto"
	"messbook/internal/domains/listing/service"
	"messbook/permissions"
	cacheMocks "messbook/shared/cache/mocks"
	gDto "messbook/shared/dto"
	"messbook/shared/failure"
	gRepo "messbook/shared/repository"
)

const listingID = "6f1c2f4e-8a51-4c1e-9d0a-2b7d8f1e3c55"

var (
	owner   = permissions.Principal{UserID: "owner-1", Role: permissions.RoleOwner}
	other   = permissions.Principal{UserID: "owner-2", Role: permissions.RoleOwner}
	admin   = permissions.Principal{UserID: "admin-1", Role: permissions.RoleAdmin}
	student = permissions.Principal{UserID: "student-1", Role: permissions.RoleUser}
)

type deps struct {
	repo  *listingMocks.MockListing
	cache *cacheMocks.MockRedisCache
	s3    *s3Mocks.MockS3
}

func newService(t *testing.T) (service.Listing, deps) {
	ctrl := gomock.NewController(t)

	d := deps{
		repo:  listingMocks.NewMockListing(ctrl),
		cache: cacheMocks.NewMockRedisCache(ctrl),
		s3:    s3Mocks.NewMockS3(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	d.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	d.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	d.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return service.New(d.repo, cfg, d.cache, d.s3, mocks.NewOtel()), d
}

func activeListing() model.Listing {
	return model.Listing{
		ID:          listingID,
		OwnerID:     owner.UserID,
		Name:        "Green House",
		Location:    "dhanmondi",
		Category:    model.CategoryBoys,
		SingleSeats: 4,
		SinglePrice: 5000,
		DoubleSeats: 2,
		DoublePrice: 3500,
		IsActive:    true,
	}
}

func imageHeader(name, contentType string, size int64) *multipart.FileHeader {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)

	return &multipart.FileHeader{Filename: name, Header: header, Size: size}
}

func TestListingService_Create(t *testing.T) {
	req := dto.CreateListingRequest{
		Name:        "Green House",
		Location:    " Dhanmondi ",
		Category:    model.CategoryBoys,
		Address:     "House 12, Road 5",
		SingleSeats: 4,
		SinglePrice: 5000,
	}

	t.Run("owner creates an active listing", func(t *testing.T) {
		svc, d := newService(t)

		var inserted model.Listing
		d.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l model.Listing) error {
			inserted = l

			return nil
		})

		res, err := svc.Create(context.Background(), owner, req)
		require.NoError(t, err)

		assert.Equal(t, owner.UserID, inserted.OwnerID)
		assert.Equal(t, "dhanmondi", inserted.Location)
		assert.True(t, inserted.IsActive)
		assert.Equal(t, inserted.ID, res.ID)
		assert.Empty(t, res.Images)
		assert.NotNil(t, res.Images)
	})

	t.Run("student is forbidden", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Create(context.Background(), student, req)
		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("store error", func(t *testing.T) {
		svc, d := newService(t)
		d.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))

		_, err := svc.Create(context.Background(), admin, req)
		assert.Error(t, err)
	})
}

func TestListingService_GetAll(t *testing.T) {
	t.Run("cache miss loads active listings", func(t *testing.T) {
		svc, d := newService(t)

		d.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
		d.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
			assert.Contains(t, filter.Filters, gDto.Filter{
				Field: model.FieldIsActive, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName,
			})
			assert.Contains(t, filter.Filters, gDto.Filter{
				Field: model.FieldCategory, Value: "girls", Operator: gDto.FilterOperatorEq, Table: model.TableName,
			})

			return 1, nil
		})
		d.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Listing{activeListing()}, nil)

		res, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, dto.ListingFilter{Category: "girls"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.TotalData)
		assert.Equal(t, 1, res.TotalPage)
		assert.Len(t, res.Listings, 1)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		svc, d := newService(t)

		d.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, _ string, value any) error {
			value.(*dto.GetListingsResponse).TotalData = 7

			return nil
		})

		res, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, dto.ListingFilter{})
		require.NoError(t, err)
		assert.Equal(t, 7, res.TotalData)
	})

	t.Run("get all error", func(t *testing.T) {
		svc, d := newService(t)

		d.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
		d.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
		d.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("database error"))

		_, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, dto.ListingFilter{})
		assert.Error(t, err)
	})
}

func TestListingService_Get(t *testing.T) {
	tests := []struct {
		name     string
		listing  model.Listing
		repoErr  error
		wantKind failure.Kind
		wantErr  bool
	}{
		{name: "active listing", listing: activeListing()},
		{name: "missing listing", repoErr: gRepo.ErrNotFound, wantErr: true, wantKind: failure.KindNotFound},
		{name: "soft deleted listing", listing: model.Listing{ID: listingID}, wantErr: true, wantKind: failure.KindNotFound},
		{name: "store error", repoErr: errors.New("database error"), wantErr: true, wantKind: failure.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService(t)

			d.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
			d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.listing, tt.repoErr)

			res, err := svc.Get(context.Background(), listingID)
			if tt.wantErr {
				assert.Equal(t, tt.wantKind, failure.GetKind(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Green House", res.Name)
		})
	}
}

func TestListingService_Update(t *testing.T) {
	zero := 0

	t.Run("owner sets seats to zero", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeListing(), nil)
		d.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, mod map[string]any, _ gDto.FilterGroup) (int64, error) {
				assert.Equal(t, 0, mod[model.FieldSingleSeats])
				assert.Equal(t, "gulshan", mod[model.FieldLocation])

				return 1, nil
			})

		err := svc.Update(context.Background(), owner, listingID, dto.UpdateListingRequest{SingleSeats: &zero, Location: "Gulshan"})
		assert.NoError(t, err)
	})

	t.Run("another owner is forbidden", func(t *testing.T) {
		svc, d := newService(t)
		d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeListing(), nil)

		err := svc.Update(context.Background(), other, listingID, dto.UpdateListingRequest{Name: "Mine now"})
		assert.Equal(t, failure.KindForbidden, failure.GetKind(err))
	})

	t.Run("admin may update any listing", func(t *testing.T) {
		svc, d := newService(t)
		d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeListing(), nil)
		d.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)

		assert.NoError(t, svc.Update(context.Background(), admin, listingID, dto.UpdateListingRequest{Name: "Blue House"}))
	})
}

func TestListingService_Delete(t *testing.T) {
	svc, d := newService(t)

	d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeListing(), nil)
	d.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, mod map[string]any, _ gDto.FilterGroup) (int64, error) {
			assert.Equal(t, false, mod[model.FieldIsActive])

			return 1, nil
		})

	assert.NoError(t, svc.Delete(context.Background(), owner, listingID))
}

func TestListingService_UpdateRating(t *testing.T) {
	valid := 4.5
	tooHigh := 5.5

	t.Run("valid rating", func(t *testing.T) {
		svc, d := newService(t)
		d.repo.EXPECT().Update(gomock.Any(), map[string]any{model.FieldRating: 4.5}, gomock.Any()).Return(int64(1), nil)

		assert.NoError(t, svc.UpdateRating(context.Background(), listingID, dto.UpdateRatingRequest{Rating: &valid}))
	})

	t.Run("out of range", func(t *testing.T) {
		svc, _ := newService(t)

		err := svc.UpdateRating(context.Background(), listingID, dto.UpdateRatingRequest{Rating: &tooHigh})
		assert.Equal(t, failure.KindInvalidArgument, failure.GetKind(err))
	})

	t.Run("unknown listing", func(t *testing.T) {
		svc, d := newService(t)
		d.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)

		err := svc.UpdateRating(context.Background(), listingID, dto.UpdateRatingRequest{Rating: &valid})
		assert.Equal(t, failure.KindNotFound, failure.GetKind(err))
	})
}

func TestListingService_UploadImages(t *testing.T) {
	files := []*multipart.FileHeader{
		imageHeader("front.JPG", "image/jpeg", 1024),
		imageHeader("room.png", "image/png", 2048),
	}

	t.Run("uploads and appends", func(t *testing.T) {
		svc, d := newService(t)

		listing := activeListing()
		listing.Images = []string{"https://cdn.example.com/listings/old.jpg"}

		d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listing, nil)
		d.s3.EXPECT().UploadFile(gomock.Any(), "listings/"+listingID, gomock.Any(), files[0]).Return("https://cdn.example.com/a.jpg", nil)
		d.s3.EXPECT().UploadFile(gomock.Any(), "listings/"+listingID, gomock.Any(), files[1]).Return("https://cdn.example.com/b.png", nil)
		d.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)

		images, err := svc.UploadImages(context.Background(), owner, listingID, files)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://cdn.example.com/listings/old.jpg",
			"https://cdn.example.com/a.jpg",
			"https://cdn.example.com/b.png",
		}, images)
	})

	t.Run("rejects unsupported type before touching storage", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.UploadImages(context.Background(), owner, listingID, []*multipart.FileHeader{
			imageHeader("doc.pdf", "application/pdf", 10),
		})
		assert.Equal(t, failure.KindInvalidArgument, failure.GetKind(err))
	})

	t.Run("store failure removes uploaded objects", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeListing(), nil)
		d.s3.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn.example.com/a.jpg", nil)
		d.s3.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn.example.com/b.png", nil)
		d.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database error"))
		d.s3.EXPECT().DeleteObject(gomock.Any(), "https://cdn.example.com/a.jpg").Return(nil)
		d.s3.EXPECT().DeleteObject(gomock.Any(), "https://cdn.example.com/b.png").Return(nil)

		_, err := svc.UploadImages(context.Background(), owner, listingID, files)
		assert.Error(t, err)
	})

	t.Run("upload failure is an upstream failure", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(activeListing(), nil)
		d.s3.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket unavailable"))

		_, err := svc.UploadImages(context.Background(), owner, listingID, files)
		assert.Equal(t, failure.KindUpstreamFailure, failure.GetKind(err))
	})
}

package validator_test

import (
	"messbook/shared/failure"
	"messbook/shared/validator"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type bookingRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	RoomType  string `json:"room_type"  validate:"required,oneof=single double"`
}

type historyQuery struct {
	UserID string `json:"user_id" validate:"required,uuid_or_all"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectedMsg string
	}{
		{
			name: "valid request",
			body: `{"listing_id":"550e8400-e29b-41d4-a716-446655440000","room_type":"single"}`,
		},
		{
			name:        "missing field uses json name",
			body:        `{"room_type":"single"}`,
			expectedMsg: "listing_id is required",
		},
		{
			name:        "bad enum",
			body:        `{"listing_id":"550e8400-e29b-41d4-a716-446655440000","room_type":"triple"}`,
			expectedMsg: "room_type must be one of single double",
		},
		{
			name:        "bad uuid",
			body:        `{"listing_id":"42","room_type":"double"}`,
			expectedMsg: "listing_id must be a valid id",
		},
		{
			name:        "empty body",
			body:        ``,
			expectedMsg: "request body is required",
		},
		{
			name:        "unknown field",
			body:        `{"listing_id":"550e8400-e29b-41d4-a716-446655440000","room_type":"single","price":1}`,
			expectedMsg: "failed to decode request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req bookingRequest

			err := validator.Validate(strings.NewReader(tt.body), &req)
			if tt.expectedMsg == "" {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Equal(t, failure.KindInvalidArgument, failure.GetKind(err))
			assert.Contains(t, err.Error(), tt.expectedMsg)
		})
	}
}

func TestValidateStruct_UUIDOrAll(t *testing.T) {
	assert.NoError(t, validator.ValidateStruct(&historyQuery{UserID: "all"}))
	assert.NoError(t, validator.ValidateStruct(&historyQuery{UserID: "550e8400-e29b-41d4-a716-446655440000"}))

	err := validator.ValidateStruct(&historyQuery{UserID: "everyone"})
	assert.EqualError(t, err, "user_id must be a valid id or 'all'")

	err = validator.ValidateStruct(&historyQuery{})
	assert.EqualError(t, err, "user_id is required")
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar(4.5, "gte=0,lte=5"))

	err := validator.ValidateVar(7.0, "gte=0,lte=5")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be less than or equal to 5")
}

func TestValidateFiles(t *testing.T) {
	image := func(contentType string, size int64) *multipart.FileHeader {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)

		return &multipart.FileHeader{Filename: "front.jpg", Header: header, Size: size}
	}

	allowed := []string{"image/png", "image/jpeg"}

	tests := []struct {
		name        string
		files       []*multipart.FileHeader
		expectedMsg string
	}{
		{name: "valid", files: []*multipart.FileHeader{image("image/jpeg", 1024)}},
		{name: "missing", files: nil, expectedMsg: "images is required"},
		{name: "too many", files: []*multipart.FileHeader{image("image/png", 1), image("image/png", 1), image("image/png", 1)}, expectedMsg: "images must contain at most 2 files"},
		{name: "wrong type", files: []*multipart.FileHeader{image("application/pdf", 1024)}, expectedMsg: "images must be one of image/png image/jpeg"},
		{name: "too large", files: []*multipart.FileHeader{image("image/png", 3*1024*1024)}, expectedMsg: "images must not exceed 2 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFiles("images", tt.files, 2, 2, allowed...)
			if tt.expectedMsg == "" {
				assert.NoError(t, err)

				return
			}

			assert.EqualError(t, err, tt.expectedMsg)
			assert.Equal(t, failure.KindInvalidArgument, failure.GetKind(err))
		})
	}
}

package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"messbook/shared/constant"
	"messbook/shared/failure"
	"mime/multipart"
	"reflect"
	"slices"
	"strings"

	val "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate *val.Validate

// uuidOrAllValidation accepts a canonical UUID or the literal "all" (admin history view).
func uuidOrAllValidation(field val.FieldLevel) bool {
	value := field.Field().String()
	if value == constant.All {
		return true
	}

	return uuid.Validate(value) == nil && len(value) == 36
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}

		return name
	})

	if err := validate.RegisterValidation("uuid_or_all", uuidOrAllValidation); err != nil {
		panic(err)
	}
}

// Validate reads from the given io.Reader into the given struct, and then performs validation
// on the struct using the validator package. If the struct is invalid according to the
// validation rules, an error is returned. Otherwise, nil is returned.
// https://github.com/go-playground/validator
func Validate[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return failure.BadRequestFromString("request body is required") //nolint:wrapcheck
		}

		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

func ValidateVar(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}

// ValidateFiles checks uploaded files against a size limit in MB and the allowed content types.
func ValidateFiles(field string, files []*multipart.FileHeader, maxFiles int, maxSizeMB float64, mimetypes ...string) error {
	if len(files) == 0 {
		return failure.BadRequestFromString(field + " is required") //nolint:wrapcheck
	}

	if len(files) > maxFiles {
		return failure.BadRequestFromString(fmt.Sprintf("%s must contain at most %d files", field, maxFiles)) //nolint:wrapcheck
	}

	for _, file := range files {
		contentType := file.Header.Get(constant.RequestHeaderContentType)
		if !slices.Contains(mimetypes, contentType) {
			return failure.BadRequestFromString(fmt.Sprintf("%s must be one of %s", field, strings.Join(mimetypes, " "))) //nolint:wrapcheck
		}

		if float64(file.Size) > maxSizeMB*1024*1024 {
			return failure.BadRequestFromString(fmt.Sprintf("%s must not exceed %g MB", field, maxSizeMB)) //nolint:wrapcheck
		}
	}

	return nil
}

package booking

import (
	"errors"
	"io"
	"messbook/infras/otel"
	"messbook/internal/domains/booking/model/dto"
	"messbook/internal/domains/booking/service"
	"messbook/permissions"
	"messbook/shared"
	"messbook/shared/constant"
	gDto "messbook/shared/dto"
	"messbook/shared/failure"
	"messbook/shared/validator"
	"messbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	booking    service.Booking
	reconciler service.Reconciler
	otel       otel.Otel
}

func New(booking service.Booking, reconciler service.Reconciler, otel otel.Otel) Handler {
	return Handler{
		booking:    booking,
		reconciler: reconciler,
		otel:       otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/initiate", handler.InitiateBooking)
		routerGroup.Get("/history", handler.GetHistory)
		routerGroup.Post("/webhook", handler.Webhook)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Post("/{id}/confirm", handler.ConfirmBooking)
		routerGroup.Patch("/{id}/cancel", handler.CancelBooking)
	})
}

// authorize resolves the caller and, when withID is set, the order id from the path.
func authorize(r *http.Request, withID bool) (permissions.Principal, string, error) {
	principal, err := permissions.RequirePrincipal(r.Context())
	if err != nil {
		return principal, "", err //nolint:wrapcheck
	}

	if !withID {
		return principal, "", nil
	}

	id := chi.URLParam(r, constant.RequestParamID)
	if !shared.IsValidID(id) {
		return principal, "", failure.InvalidIDParam
	}

	return principal, id, nil
}

// InitiateBooking starts a booking or resumes the caller's pending one.
// @Summary Initiate a booking
// @Description Creates (or reuses) a pending order and its transaction, then opens a checkout session.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.InitiateBookingRequest true "Initiate Booking Request"
// @Success 200 {object} response.Data[dto.InitiateBookingResponse]
// @Failure 400 {object} response.Error "Invalid request or no seats available"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/initiate [post]
// @Security BearerAuth
func (handler *Handler) InitiateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".InitiateBooking")
	defer scope.End()

	principal, _, err := authorize(r, false)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	req := dto.InitiateBookingRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.booking.InitiateBooking(ctx, principal, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("listing_id", req.ListingID).Msg("failed to initiate booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking initiated for order " + res.OrderID)

	response.WithJSON(w, http.StatusOK, res)
}

// GetHistory lists orders for a user, or every order when user_id=all.
// @Summary Booking history
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param user_id query string false "User ID, or all (admin only); defaults to the caller"
// @Success 200 {object} response.Data[dto.GetOrdersResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/history [get]
// @Security BearerAuth
func (handler *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetHistory")
	defer scope.End()

	principal, _, err := authorize(r, false)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	req := dto.HistoryRequest{UserID: r.URL.Query().Get(constant.RequestParamUserID)}
	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	orders, err := handler.booking.History(ctx, principal, req, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to get booking history")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, orders)
}

// GetBookingByID returns an order with its listing and transaction.
// @Summary Get a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Data[dto.OrderResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	principal, id, err := authorize(r, true)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	order, err := handler.booking.Get(ctx, principal, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("id", id).Msg("failed to get booking")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, order)
}

// ConfirmBooking confirms a paid order after the checkout redirect.
// @Summary Confirm a booking
// @Description Verifies the checkout session is paid and confirms the order if seats remain. Idempotent.
// @Tags Booking
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Data[dto.OrderResponse]
// @Failure 400 {object} response.Error "Invalid status, unpaid session or no seats available"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/confirm [post]
// @Security BearerAuth
func (handler *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConfirmBooking")
	defer scope.End()

	principal, id, err := authorize(r, true)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	order, err := handler.reconciler.ConfirmAfterRedirect(ctx, principal, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("id", id).Msg("failed to confirm booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking confirmed " + id)

	response.WithJSON(w, http.StatusOK, order)
}

// CancelBooking cancels a pending or confirmed order.
// @Summary Cancel a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body dto.CancelBookingRequest true "Must be {\"action\":\"cancel\"}"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error "Invalid id, action or status"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/bookings/{id}/cancel [patch]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	principal, id, err := authorize(r, true)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	req := dto.CancelBookingRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	if err := handler.reconciler.CancelBooking(ctx, principal, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("id", id).Msg("failed to cancel booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking cancelled " + id)

	response.WithMessage(w, http.StatusOK, "Booking cancelled successfully")
}

// Webhook receives payment gateway events. The signature is verified before anything else;
// a non-2xx answer makes the gateway deliver the event again.
// @Summary Payment gateway webhook
// @Tags Booking
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Gateway signature"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error "Invalid signature"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/webhook [post]
func (handler *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Webhook")
	defer scope.End()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constant.MaxWebhookBodyBytes))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read webhook body")

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.WithError(w, failure.BadRequestFromString("webhook payload is too large"))

			return
		}

		response.WithError(w, failure.BadRequest(err))

		return
	}

	if err := handler.reconciler.HandleWebhook(ctx, payload, r.Header.Get(constant.RequestHeaderStripeSignature)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to handle webhook")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "received")
}

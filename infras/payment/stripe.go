package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"messbook/config"
	"messbook/infras/otel"
	"messbook/shared/constant"
	"messbook/shared/timezone"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	defaultPaymentMethod = "card"
	paymentMethodPrefix  = "stripe_"
)

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	baseURL       string
	expireMin     int
	otel          otel.Otel
}

func NewStripe(cfg *config.Config, otl otel.Otel) Gateway {
	api := &client.API{}
	api.Init(cfg.Payment.Stripe.SecretKey, nil)

	return &stripeGateway{
		api:           api,
		webhookSecret: cfg.Payment.Stripe.WebhookSecret,
		currency:      strings.ToLower(cfg.Payment.Stripe.Currency),
		baseURL:       strings.TrimSuffix(cfg.App.BaseURL, "/"),
		expireMin:     cfg.Payment.Stripe.SessionExpireMin,
		otel:          otl,
	}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (session CheckoutSession, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPaymentScopeName, constant.OtelPaymentScopeName+".CreateCheckoutSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		MetadataOrderID:       req.OrderID,
		MetadataTransactionID: req.TransactionID,
	})

	metadata := req.Metadata()

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{defaultPaymentMethod}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(ProductName(req.ListingName, req.RoomType)),
						Description: stripe.String("Monthly mess booking at " + req.ListingAddress),
					},
					UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(g.returnURL(req.ListingID, "success", req.OrderID)),
		CancelURL:         stripe.String(g.returnURL(req.ListingID, "canceled", req.OrderID)),
		ClientReferenceID: stripe.String(req.OrderID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx

	if g.expireMin > 0 {
		params.ExpiresAt = stripe.Int64(timezone.Now().Add(time.Duration(g.expireMin) * time.Minute).Unix())
	}

	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	result, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		log.Error().Err(err).Str(MetadataOrderID, req.OrderID).Msg("failed to create checkout session")

		return CheckoutSession{}, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return fromStripeSession(result), nil
}

func (g *stripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (session CheckoutSession, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPaymentScopeName, constant.OtelPaymentScopeName+".GetCheckoutSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	result, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to retrieve checkout session")

		return CheckoutSession{}, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	return fromStripeSession(result), nil
}

// VerifyWebhook checks the signature header before decoding anything from payload.
func (g *stripeGateway) VerifyWebhook(ctx context.Context, payload []byte, signature string) (event Event, err error) {
	_, scope := g.otel.NewScope(ctx, constant.OtelPaymentScopeName, constant.OtelPaymentScopeName+".VerifyWebhook")
	defer scope.End()
	defer scope.TraceIfError(err)

	stripeEvent, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("webhook signature verification failed")

		return Event{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	event = Event{
		ID:   stripeEvent.ID,
		Type: EventType(stripeEvent.Type),
	}

	scope.SetAttribute("event_type", string(event.Type))

	if stripeEvent.Data == nil {
		return event, nil
	}

	switch event.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var stripeSession stripe.CheckoutSession
		if err = json.Unmarshal(stripeEvent.Data.Raw, &stripeSession); err != nil {
			return Event{}, fmt.Errorf("failed to decode checkout session: %w", err)
		}

		event.Session = fromStripeSession(&stripeSession)
		event.Metadata = event.Session.Metadata
	case EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err = json.Unmarshal(stripeEvent.Data.Raw, &intent); err != nil {
			return Event{}, fmt.Errorf("failed to decode payment intent: %w", err)
		}

		event.PaymentID = intent.ID
		event.Metadata = intent.Metadata
	}

	return event, nil
}

func (g *stripeGateway) returnURL(listingID, flag, orderID string) string {
	query := url.Values{}
	query.Set(flag, "1")
	query.Set(MetadataOrderID, orderID)

	return fmt.Sprintf("%s/mess/%s?%s", g.baseURL, url.PathEscape(listingID), query.Encode())
}

func fromStripeSession(s *stripe.CheckoutSession) CheckoutSession {
	method := defaultPaymentMethod
	if len(s.PaymentMethodTypes) > 0 && s.PaymentMethodTypes[0] != "" {
		method = s.PaymentMethodTypes[0]
	}

	metadata := s.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Paid:          s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		PaymentMethod: paymentMethodPrefix + method,
		Metadata:      metadata,
	}
}

// ProductName renders "Green House - Single Room".
func ProductName(listingName, roomType string) string {
	if roomType == "" {
		return listingName
	}

	return fmt.Sprintf("%s - %s%s Room", listingName, strings.ToUpper(roomType[:1]), roomType[1:])
}

// MinorUnits converts a price to the smallest currency unit the gateway charges in.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

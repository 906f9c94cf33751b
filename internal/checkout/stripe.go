package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// InitStripe initializes the Stripe API with the secret key.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

// IntentInfo is the slice of a payment intent the orchestrator needs:
// identity, client secret for the browser-side confirm, status, and the
// opaque metadata that carries the pre-generated pass identifier across the
// payment round trip.
type IntentInfo struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"-"`
}

const intentStatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)
const intentStatusCanceled = string(stripe.PaymentIntentStatusCanceled)

// PaymentClient abstracts the payment processor so the orchestrator can be
// exercised without network calls.
type PaymentClient interface {
	CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*IntentInfo, error)
	GetIntent(ctx context.Context, id string) (*IntentInfo, error)
}

// StripeClient is the production PaymentClient. Intents are created with
// automatic payment methods and redirects allowed, so confirmation may
// suspend on an out-of-band redirect before the processor reports a final
// status.
type StripeClient struct{}

func (StripeClient) CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (*IntentInfo, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("always"),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return intentInfo(intent), nil
}

func (StripeClient) GetIntent(ctx context.Context, id string) (*IntentInfo, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, err
	}
	return intentInfo(intent), nil
}

func intentInfo(intent *stripe.PaymentIntent) *IntentInfo {
	return &IntentInfo{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Metadata:     intent.Metadata,
	}
}

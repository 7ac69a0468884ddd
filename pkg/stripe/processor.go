package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
)

// PaymentProcessor exposes the subset of Stripe operations required by the
// settlement service.
type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
	CreateTransfer(ctx context.Context, params *stripe.TransferCreateParams) (*stripe.Transfer, error)
}

type processorWrapper struct {
	api *stripe.Client
}

// NewPaymentProcessor narrows the client to the calls settlement makes so the
// service can be tested against a fake.
func NewPaymentProcessor(client *Client) PaymentProcessor {
	if client == nil || client.API() == nil {
		return nil
	}
	return &processorWrapper{api: client.API()}
}

func (w *processorWrapper) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	return w.api.V1PaymentIntents.Create(ctx, params)
}

func (w *processorWrapper) RetrievePaymentIntent(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error) {
	return w.api.V1PaymentIntents.Retrieve(ctx, id, params)
}

func (w *processorWrapper) CreateTransfer(ctx context.Context, params *stripe.TransferCreateParams) (*stripe.Transfer, error) {
	return w.api.V1Transfers.Create(ctx, params)
}

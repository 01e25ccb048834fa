package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/nmoreau/galleria-backend/internal/settlement"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

type stubSettlement struct {
	inputs []settlement.SettleInput
	err    error
	result *settlement.SettleResult
}

func (s *stubSettlement) Settle(ctx context.Context, input settlement.SettleInput) (*settlement.SettleResult, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	txnID := uuid.New()
	return &settlement.SettleResult{TransactionID: &txnID, Status: enums.SettlementStatusCompleted}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func sessionEvent(t *testing.T, metadata map[string]string) *stripe.Event {
	t.Helper()
	session := map[string]any{
		"id":             "cs_test_456",
		"amount_total":   10000,
		"currency":       "usd",
		"metadata":       metadata,
		"payment_intent": map[string]any{"id": "pi_test_789"},
	}
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func validMetadata() map[string]string {
	return map[string]string{
		"artwork_id": uuid.NewString(),
		"user_id":    uuid.NewString(),
		"wallet_id":  uuid.NewString(),
	}
}

func TestHandleEventSettlesCompletedCheckout(t *testing.T) {
	stub := &stubSettlement{}
	svc, err := NewService(ServiceParams{Settlement: stub, Logger: testLogger()})
	require.NoError(t, err)

	metadata := validMetadata()
	require.NoError(t, svc.HandleEvent(context.Background(), sessionEvent(t, metadata)))

	require.Len(t, stub.inputs, 1)
	input := stub.inputs[0]
	assert.Equal(t, enums.SettlementTriggerWebhook, input.Trigger)
	assert.Equal(t, "pi_test_789", input.PaymentID)
	assert.Equal(t, "cs_test_456", input.SessionID)
	assert.Equal(t, metadata["artwork_id"], input.ArtworkID.String())
	assert.Equal(t, metadata["user_id"], input.BuyerID.String())
	assert.Equal(t, metadata["wallet_id"], input.WalletID.String())
	assert.Equal(t, int64(10000), input.AmountCents)
	assert.Equal(t, enums.CurrencyUSD, input.Currency)
	assert.Nil(t, input.OfferID)
}

func TestHandleEventCarriesOfferID(t *testing.T) {
	stub := &stubSettlement{}
	svc, err := NewService(ServiceParams{Settlement: stub, Logger: testLogger()})
	require.NoError(t, err)

	metadata := validMetadata()
	offerID := uuid.NewString()
	metadata["offer_id"] = offerID

	require.NoError(t, svc.HandleEvent(context.Background(), sessionEvent(t, metadata)))
	require.Len(t, stub.inputs, 1)
	require.NotNil(t, stub.inputs[0].OfferID)
	assert.Equal(t, offerID, stub.inputs[0].OfferID.String())
}

func TestHandleEventRejectsMissingMetadata(t *testing.T) {
	stub := &stubSettlement{}
	svc, err := NewService(ServiceParams{Settlement: stub, Logger: testLogger()})
	require.NoError(t, err)

	metadata := validMetadata()
	delete(metadata, "wallet_id")

	err = svc.HandleEvent(context.Background(), sessionEvent(t, metadata))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Empty(t, stub.inputs)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	stub := &stubSettlement{}
	svc, err := NewService(ServiceParams{Settlement: stub, Logger: testLogger()})
	require.NoError(t, err)

	event := &stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventTypeCustomerCreated,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Empty(t, stub.inputs)
}

func TestHandleEventLogsPaymentFailure(t *testing.T) {
	stub := &stubSettlement{}
	svc, err := NewService(ServiceParams{Settlement: stub, Logger: testLogger()})
	require.NoError(t, err)

	event := &stripe.Event{
		ID:   "evt_3",
		Type: stripe.EventTypePaymentIntentPaymentFailed,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Empty(t, stub.inputs, "failure events must not settle")
}

func TestHandleEventPropagatesSettlementError(t *testing.T) {
	stub := &stubSettlement{err: errors.New("db down")}
	svc, err := NewService(ServiceParams{Settlement: stub, Logger: testLogger()})
	require.NoError(t, err)

	err = svc.HandleEvent(context.Background(), sessionEvent(t, validMetadata()))
	require.Error(t, err)
}

package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	checkoutsvc "github.com/nmoreau/galleria-backend/internal/checkout"
	"github.com/nmoreau/galleria-backend/internal/settlement"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
)

type stubCheckoutService struct {
	resp *checkoutsvc.CreateSessionResponse
	err  error
}

func (s *stubCheckoutService) CreateSession(ctx context.Context, buyerID, walletID uuid.UUID, req checkoutsvc.CreateSessionRequest) (*checkoutsvc.CreateSessionResponse, error) {
	return s.resp, s.err
}

type stubStripeSessionClient struct {
	session *stripe.CheckoutSession
	err     error
}

func (s *stubStripeSessionClient) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return s.session, s.err
}

func (s *stubStripeSessionClient) GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	return s.session, s.err
}

type stubSettlementService struct {
	inputs []settlement.SettleInput
	result *settlement.SettleResult
	err    error
}

func (s *stubSettlementService) Settle(ctx context.Context, input settlement.SettleInput) (*settlement.SettleResult, error) {
	s.inputs = append(s.inputs, input)
	return s.result, s.err
}

func paidSession(buyerID uuid.UUID) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   10000,
		Currency:      stripe.CurrencyUSD,
		Metadata: map[string]string{
			"artwork_id": uuid.NewString(),
			"user_id":    buyerID.String(),
			"wallet_id":  uuid.NewString(),
		},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_1"},
	}
}

func TestPurchaseCheckoutRequiresWalletClaim(t *testing.T) {
	svc := &stubCheckoutService{resp: &checkoutsvc.CreateSessionResponse{SessionID: "cs"}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase/checkout", bytes.NewReader([]byte(`{"artwork_id":"`+uuid.NewString()+`"}`)))
	req = authedRequest(req, uuid.New(), enums.UserRoleBuyer)
	resp := httptest.NewRecorder()
	PurchaseCheckout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without wallet claim got %d", resp.Code)
	}
}

func TestPurchaseProcessSettlesPaidSession(t *testing.T) {
	buyerID := uuid.New()
	txnID := uuid.New()
	stripeStub := &stubStripeSessionClient{session: paidSession(buyerID)}
	settler := &stubSettlementService{result: &settlement.SettleResult{
		TransactionID: &txnID,
		Status:        enums.SettlementStatusCompleted,
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase/process", bytes.NewReader([]byte(`{"session_id":"cs_test_1"}`)))
	req = authedRequest(req, buyerID, enums.UserRoleBuyer)
	resp := httptest.NewRecorder()
	PurchaseProcess(stripeStub, settler, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(settler.inputs) != 1 {
		t.Fatalf("expected one settlement, got %d", len(settler.inputs))
	}
	input := settler.inputs[0]
	if input.Trigger != enums.SettlementTriggerFallback {
		t.Fatalf("expected fallback trigger, got %s", input.Trigger)
	}
	if input.PaymentID != "pi_test_1" {
		t.Fatalf("expected payment intent id, got %s", input.PaymentID)
	}
}

func TestPurchaseProcessRejectsUnpaidSession(t *testing.T) {
	buyerID := uuid.New()
	session := paidSession(buyerID)
	session.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	stripeStub := &stubStripeSessionClient{session: session}
	settler := &stubSettlementService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase/process", bytes.NewReader([]byte(`{"session_id":"cs_test_1"}`)))
	req = authedRequest(req, buyerID, enums.UserRoleBuyer)
	resp := httptest.NewRecorder()
	PurchaseProcess(stripeStub, settler, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if len(settler.inputs) != 0 {
		t.Fatalf("unpaid session must not settle")
	}
}

func TestPurchaseProcessRejectsForeignSession(t *testing.T) {
	stripeStub := &stubStripeSessionClient{session: paidSession(uuid.New())}
	settler := &stubSettlementService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase/process", bytes.NewReader([]byte(`{"session_id":"cs_test_1"}`)))
	req = authedRequest(req, uuid.New(), enums.UserRoleBuyer)
	resp := httptest.NewRecorder()
	PurchaseProcess(stripeStub, settler, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if len(settler.inputs) != 0 {
		t.Fatalf("foreign session must not settle")
	}
}

func TestPurchaseProcessPropagatesAlreadyProcessed(t *testing.T) {
	buyerID := uuid.New()
	txnID := uuid.New()
	stripeStub := &stubStripeSessionClient{session: paidSession(buyerID)}
	settler := &stubSettlementService{result: &settlement.SettleResult{
		TransactionID:    &txnID,
		Status:           enums.SettlementStatusCompleted,
		AlreadyProcessed: true,
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase/process", bytes.NewReader([]byte(`{"session_id":"cs_test_1"}`)))
	req = authedRequest(req, buyerID, enums.UserRoleBuyer)
	resp := httptest.NewRecorder()
	PurchaseProcess(stripeStub, settler, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"already_processed":true`)) {
		t.Fatalf("expected already_processed in payload: %s", resp.Body.String())
	}
}

func TestPurchaseProcessStripeFailure(t *testing.T) {
	stripeStub := &stubStripeSessionClient{err: pkgerrors.New(pkgerrors.CodeDependency, "stripe down")}
	settler := &stubSettlementService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchase/process", bytes.NewReader([]byte(`{"session_id":"cs_test_1"}`)))
	req = authedRequest(req, uuid.New(), enums.UserRoleBuyer)
	resp := httptest.NewRecorder()
	PurchaseProcess(stripeStub, settler, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

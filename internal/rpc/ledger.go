package rpc

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/seams-estates/seams/internal/auth"
	"github.com/seams-estates/seams/internal/models"
	"github.com/seams-estates/seams/internal/service"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "seams.v1.LedgerService"

// Procedure paths, as Connect routes them.
const (
	GetStatementProcedure  = "/" + LedgerServiceName + "/GetStatement"
	RecordPaymentProcedure = "/" + LedgerServiceName + "/RecordPayment"
	VerifyPaymentProcedure = "/" + LedgerServiceName + "/VerifyPayment"
	PostBillProcedure      = "/" + LedgerServiceName + "/PostBill"
)

type GetStatementRequest struct {
	TenantID string `json:"tenant_id"`
}

type VerifyPaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type RecordPaymentResponse struct {
	Payment *models.Payment `json:"payment"`
}

type PostBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

// Ledger is the service surface the RPC server exposes.
type Ledger interface {
	Statement(ctx context.Context, actor auth.Principal, tenantID string) (*service.TenantStatement, error)
	RecordPayment(ctx context.Context, actor auth.Principal, in service.RecordPaymentInput) (*models.Payment, error)
	VerifyPayment(ctx context.Context, actor auth.Principal, paymentID string) (*models.Verification, error)
	PostBill(ctx context.Context, actor auth.Principal, in service.PostBillInput) (*models.Bill, error)
}

// LedgerServer adapts a Ledger to Connect handlers.
type LedgerServer struct {
	ledger Ledger
	logger *slog.Logger
}

func NewLedgerServer(ledger Ledger, logger *slog.Logger) *LedgerServer {
	return &LedgerServer{ledger: ledger, logger: logger}
}

func principal(ctx context.Context) auth.Principal {
	p, _ := auth.PrincipalFrom(ctx)
	return p
}

func (s *LedgerServer) fail(procedure string, err error) error {
	ce := toConnectError(err)
	if connect.CodeOf(ce) == connect.CodeInternal {
		s.logger.Error("RPC failed", "procedure", procedure, "error", err)
	}
	return ce
}

func (s *LedgerServer) GetStatement(ctx context.Context, req *connect.Request[GetStatementRequest]) (*connect.Response[service.TenantStatement], error) {
	st, err := s.ledger.Statement(ctx, principal(ctx), req.Msg.TenantID)
	if err != nil {
		return nil, s.fail(GetStatementProcedure, err)
	}
	return connect.NewResponse(st), nil
}

func (s *LedgerServer) RecordPayment(ctx context.Context, req *connect.Request[service.RecordPaymentInput]) (*connect.Response[RecordPaymentResponse], error) {
	p, err := s.ledger.RecordPayment(ctx, principal(ctx), *req.Msg)
	if err != nil {
		return nil, s.fail(RecordPaymentProcedure, err)
	}
	return connect.NewResponse(&RecordPaymentResponse{Payment: p}), nil
}

func (s *LedgerServer) VerifyPayment(ctx context.Context, req *connect.Request[VerifyPaymentRequest]) (*connect.Response[models.Verification], error) {
	v, err := s.ledger.VerifyPayment(ctx, principal(ctx), req.Msg.PaymentID)
	if err != nil {
		return nil, s.fail(VerifyPaymentProcedure, err)
	}
	return connect.NewResponse(v), nil
}

func (s *LedgerServer) PostBill(ctx context.Context, req *connect.Request[service.PostBillInput]) (*connect.Response[PostBillResponse], error) {
	b, err := s.ledger.PostBill(ctx, principal(ctx), *req.Msg)
	if err != nil {
		return nil, s.fail(PostBillProcedure, err)
	}
	return connect.NewResponse(&PostBillResponse{Bill: b}), nil
}

// NewLedgerServiceHandler builds an HTTP handler for the ledger service.
// It returns the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(s *LedgerServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetStatementProcedure, connect.NewUnaryHandler(GetStatementProcedure, s.GetStatement, opts...))
	mux.Handle(RecordPaymentProcedure, connect.NewUnaryHandler(RecordPaymentProcedure, s.RecordPayment, opts...))
	mux.Handle(VerifyPaymentProcedure, connect.NewUnaryHandler(VerifyPaymentProcedure, s.VerifyPayment, opts...))
	mux.Handle(PostBillProcedure, connect.NewUnaryHandler(PostBillProcedure, s.PostBill, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient calls the ledger service.
type LedgerServiceClient struct {
	getStatement  *connect.Client[GetStatementRequest, service.TenantStatement]
	recordPayment *connect.Client[service.RecordPaymentInput, RecordPaymentResponse]
	verifyPayment *connect.Client[VerifyPaymentRequest, models.Verification]
	postBill      *connect.Client[service.PostBillInput, PostBillResponse]
}

// NewLedgerServiceClient constructs a client for the service at baseURL
// (for example, http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &LedgerServiceClient{
		getStatement:  connect.NewClient[GetStatementRequest, service.TenantStatement](httpClient, baseURL+GetStatementProcedure, opts...),
		recordPayment: connect.NewClient[service.RecordPaymentInput, RecordPaymentResponse](httpClient, baseURL+RecordPaymentProcedure, opts...),
		verifyPayment: connect.NewClient[VerifyPaymentRequest, models.Verification](httpClient, baseURL+VerifyPaymentProcedure, opts...),
		postBill:      connect.NewClient[service.PostBillInput, PostBillResponse](httpClient, baseURL+PostBillProcedure, opts...),
	}
}

func (c *LedgerServiceClient) GetStatement(ctx context.Context, req *connect.Request[GetStatementRequest]) (*connect.Response[service.TenantStatement], error) {
	return c.getStatement.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RecordPayment(ctx context.Context, req *connect.Request[service.RecordPaymentInput]) (*connect.Response[RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) VerifyPayment(ctx context.Context, req *connect.Request[VerifyPaymentRequest]) (*connect.Response[models.Verification], error) {
	return c.verifyPayment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) PostBill(ctx context.Context, req *connect.Request[service.PostBillInput]) (*connect.Response[PostBillResponse], error) {
	return c.postBill.CallUnary(ctx, req)
}

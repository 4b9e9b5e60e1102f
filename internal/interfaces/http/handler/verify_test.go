package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/shared"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyByToken(ctx context.Context, token string) (*appdoc.VerificationResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appdoc.VerificationResponse), args.Error(1)
}

func TestVerifyHandler(t *testing.T) {
	verifier := new(mockVerifier)
	engine := mount(NewVerifyHandler(verifier).Routes())

	verifier.On("VerifyByToken", mock.Anything, "3f9c2a").Return(&appdoc.VerificationResponse{
		Valid:       true,
		Number:      "F-2026-0012",
		Type:        "invoice",
		AmountGross: decimal.RequireFromString("1440.00"),
	}, nil)
	verifier.On("VerifyByToken", mock.Anything, "forged").Return(nil, shared.NewNotFoundError("unknown verification token"))

	w := perform(engine, http.MethodGet, "/api/v1/verify/3f9c2a", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got appdoc.VerificationResponse
	decodeData(t, w, &got)
	assert.True(t, got.Valid)
	assert.Equal(t, "F-2026-0012", got.Number)

	w = perform(engine, http.MethodGet, "/api/v1/verify/forged", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyHandler_RateLimited(t *testing.T) {
	verifier := new(mockVerifier)
	verifier.On("VerifyByToken", mock.Anything, "tok").Return(&appdoc.VerificationResponse{Valid: true}, nil)
	limiter := middleware.NewRateLimiter(t.Context(), 2, time.Minute)
	engine := mount(NewVerifyHandler(verifier).Routes(middleware.RateLimit(limiter)))

	assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/api/v1/verify/tok", nil).Code)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodGet, "/api/v1/verify/tok", nil).Code)
	w := perform(engine, http.MethodGet, "/api/v1/verify/tok", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	verifier.AssertNumberOfCalls(t, "VerifyByToken", 2)
}

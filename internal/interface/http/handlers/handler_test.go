package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	"github.com/pooldraw-network/pooldraw/internal/interface/http/handlers"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x0000000000000000000000000000000000000e99")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type stubService struct {
	auction    *domain.Auction
	drawCloser common.Address

	completeDrawErr  error
	setDrawCloserErr error
}

func (s *stubService) Start() error { return nil }
func (s *stubService) Stop()        {}

func (s *stubService) StartRngAuction(
	ctx context.Context, recipient common.Address,
) (uint64, error) {
	return 42, nil
}

func (s *stubService) CanCompleteDraw(ctx context.Context) (bool, error) {
	return true, nil
}

func (s *stubService) CompleteDraw(
	ctx context.Context, caller, recipient common.Address,
) (*domain.Auction, error) {
	if s.completeDrawErr != nil {
		return nil, s.completeDrawErr
	}
	return s.auction, nil
}

func (s *stubService) SetDrawCloser(ctx context.Context, caller, closer common.Address) error {
	if s.setDrawCloserErr != nil {
		return s.setDrawCloserErr
	}
	s.drawCloser = closer
	return nil
}

func (s *stubService) GetDrawCloser(ctx context.Context) common.Address {
	return s.drawCloser
}

func (s *stubService) GetCurrentAuction(ctx context.Context) (*domain.Auction, error) {
	if s.auction == nil {
		return nil, domain.ErrNoAuctionInProgress
	}
	return s.auction, nil
}

func (s *stubService) GetAuctionWithSequence(
	ctx context.Context, sequence uint64,
) (*domain.Auction, error) {
	if s.auction != nil && s.auction.Sequence == sequence {
		return s.auction, nil
	}
	return nil, domain.ErrNoAuctionInProgress
}

func (s *stubService) GetEventsChannel(ctx context.Context) <-chan domain.AuctionEvent {
	return nil
}

func newRouter(svc *stubService) *mux.Router {
	router := mux.NewRouter()
	handlers.NewAuctionHandler(svc).RegisterRoutes(router)
	return router
}

func testAuction(t *testing.T) *domain.Auction {
	auction, err := domain.NewAuction(7, 1704067200, 3600, 1800, 2)
	require.NoError(t, err)
	_, err = auction.Start(1704067200)
	require.NoError(t, err)
	_, err = auction.RequestRng(42, alice, 1704067200+1800)
	require.NoError(t, err)
	return auction
}

func TestStartRngAuction(t *testing.T) {
	router := newRouter(&stubService{})

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost, "/v1/auctions/rng",
			strings.NewReader(`{"recipient":"`+alice.Hex()+`"}`),
		)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]uint64
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, uint64(42), resp["requestId"])
	})

	t.Run("invalid_recipient", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost, "/v1/auctions/rng",
			strings.NewReader(`{"recipient":"not-an-address"}`),
		)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid_body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost, "/v1/auctions/rng", strings.NewReader("{"),
		)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompleteDraw(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		router := newRouter(&stubService{auction: testAuction(t)})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost, "/v1/auctions/draw",
			strings.NewReader(`{"recipient":"`+bob.Hex()+`"}`),
		)
		req.Header.Set("X-Caller-Address", bob.Hex())
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, float64(7), resp["sequence"])
	})

	t.Run("missing_caller", func(t *testing.T) {
		router := newRouter(&stubService{auction: testAuction(t)})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost, "/v1/auctions/draw",
			strings.NewReader(`{"recipient":"`+bob.Hex()+`"}`),
		)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error_mapping", func(t *testing.T) {
		fixtures := []struct {
			err            error
			expectedStatus int
		}{
			{domain.ErrUnauthorizedCaller, http.StatusForbidden},
			{domain.ErrNoAuctionInProgress, http.StatusNotFound},
			{domain.ErrRngNotCompleted, http.StatusConflict},
			{domain.ErrDrawAlreadyCompleted, http.StatusConflict},
			{domain.ErrDrawAuctionExpired, http.StatusGone},
			{domain.ErrInsufficientReserve, http.StatusInternalServerError},
		}

		for _, f := range fixtures {
			router := newRouter(&stubService{completeDrawErr: f.err})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(
				http.MethodPost, "/v1/auctions/draw",
				strings.NewReader(`{"recipient":"`+bob.Hex()+`"}`),
			)
			req.Header.Set("X-Caller-Address", bob.Hex())
			router.ServeHTTP(rec, req)
			require.Equal(t, f.expectedStatus, rec.Code, "error %v", f.err)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotEmpty(t, resp["error"])
		}
	})
}

func TestGetAuctions(t *testing.T) {
	t.Run("current", func(t *testing.T) {
		router := newRouter(&stubService{auction: testAuction(t)})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/auctions/current", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, float64(42), resp["rngRequestId"])
		require.Len(t, resp["phases"], 2)
	})

	t.Run("current_not_found", func(t *testing.T) {
		router := newRouter(&stubService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/auctions/current", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("with_sequence", func(t *testing.T) {
		router := newRouter(&stubService{auction: testAuction(t)})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/auctions/7", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/v1/auctions/99", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("can_complete", func(t *testing.T) {
		router := newRouter(&stubService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/auctions/can-complete", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp["canComplete"])
	})
}

func TestDrawCloser(t *testing.T) {
	t.Run("set_and_get", func(t *testing.T) {
		router := newRouter(&stubService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPut, "/v1/admin/closer",
			strings.NewReader(`{"closer":"`+alice.Hex()+`"}`),
		)
		req.Header.Set("X-Caller-Address", owner.Hex())
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/v1/admin/closer", nil)
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, alice.Hex(), resp["closer"])
	})

	t.Run("unauthorized", func(t *testing.T) {
		router := newRouter(&stubService{setDrawCloserErr: domain.ErrUnauthorizedCaller})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPut, "/v1/admin/closer",
			strings.NewReader(`{"closer":"`+alice.Hex()+`"}`),
		)
		req.Header.Set("X-Caller-Address", alice.Hex())
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

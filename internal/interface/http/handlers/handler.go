package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/pooldraw-network/pooldraw/internal/core/application"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
)

// callerHeader carries the caller identity. There is no signature
// check here, authenticating callers is the deployment's business.
const callerHeader = "X-Caller-Address"

type AuctionHandler struct {
	svc application.Service
}

func NewAuctionHandler(svc application.Service) *AuctionHandler {
	return &AuctionHandler{svc}
}

func (h *AuctionHandler) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/auctions/rng", h.startRngAuction).Methods(http.MethodPost)
	v1.HandleFunc("/auctions/draw", h.completeDraw).Methods(http.MethodPost)
	v1.HandleFunc("/auctions/current", h.getCurrentAuction).Methods(http.MethodGet)
	v1.HandleFunc("/auctions/can-complete", h.canCompleteDraw).Methods(http.MethodGet)
	v1.HandleFunc("/auctions/{sequence:[0-9]+}", h.getAuctionWithSequence).Methods(http.MethodGet)
	v1.HandleFunc("/admin/closer", h.setDrawCloser).Methods(http.MethodPut)
	v1.HandleFunc("/admin/closer", h.getDrawCloser).Methods(http.MethodGet)
}

type startRngAuctionRequest struct {
	Recipient string `json:"recipient"`
}

type startRngAuctionResponse struct {
	RequestId uint64 `json:"requestId"`
}

func (h *AuctionHandler) startRngAuction(w http.ResponseWriter, r *http.Request) {
	var req startRngAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	requestId, err := h.svc.StartRngAuction(r.Context(), recipient)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startRngAuctionResponse{RequestId: requestId})
}

type completeDrawRequest struct {
	Recipient string `json:"recipient"`
}

func (h *AuctionHandler) completeDraw(w http.ResponseWriter, r *http.Request) {
	caller, err := parseAddress(r.Header.Get(callerHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req completeDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	auction, err := h.svc.CompleteDraw(r.Context(), caller, recipient)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionResponse(auction))
}

func (h *AuctionHandler) getCurrentAuction(w http.ResponseWriter, r *http.Request) {
	auction, err := h.svc.GetCurrentAuction(r.Context())
	if err != nil || auction == nil {
		writeError(w, http.StatusNotFound, domain.ErrNoAuctionInProgress)
		return
	}
	writeJSON(w, http.StatusOK, newAuctionResponse(auction))
}

type canCompleteDrawResponse struct {
	CanComplete bool `json:"canComplete"`
}

func (h *AuctionHandler) canCompleteDraw(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.CanCompleteDraw(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canCompleteDrawResponse{CanComplete: ok})
}

func (h *AuctionHandler) getAuctionWithSequence(w http.ResponseWriter, r *http.Request) {
	sequence, err := strconv.ParseUint(mux.Vars(r)["sequence"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid sequence"))
		return
	}

	auction, err := h.svc.GetAuctionWithSequence(r.Context(), sequence)
	if err != nil || auction == nil {
		writeError(w, http.StatusNotFound, errors.New("auction not found"))
		return
	}
	writeJSON(w, http.StatusOK, newAuctionResponse(auction))
}

type setDrawCloserRequest struct {
	Closer string `json:"closer"`
}

func (h *AuctionHandler) setDrawCloser(w http.ResponseWriter, r *http.Request) {
	caller, err := parseAddress(r.Header.Get(callerHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req setDrawCloserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	closer, err := parseAddress(req.Closer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.svc.SetDrawCloser(r.Context(), caller, closer); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"closer": closer.Hex()})
}

func (h *AuctionHandler) getDrawCloser(w http.ResponseWriter, r *http.Request) {
	closer := h.svc.GetDrawCloser(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"closer": closer.Hex()})
}

type phaseResponse struct {
	RewardPortion string `json:"rewardPortion"`
	Recipient     string `json:"recipient"`
}

type auctionResponse struct {
	Id              string          `json:"id"`
	Sequence        uint64          `json:"sequence"`
	WindowStart     int64           `json:"windowStart"`
	RngRequestId    uint64          `json:"rngRequestId,omitempty"`
	RngCompletedAt  int64           `json:"rngCompletedAt,omitempty"`
	RandomNumber    uint64          `json:"randomNumber,omitempty"`
	DrawCompletedAt int64           `json:"drawCompletedAt,omitempty"`
	Phases          []phaseResponse `json:"phases"`
	Ended           bool            `json:"ended"`
	Failed          bool            `json:"failed"`
}

func newAuctionResponse(auction *domain.Auction) auctionResponse {
	phases := make([]phaseResponse, 0, len(auction.Phases))
	for _, phase := range auction.Phases {
		phases = append(phases, phaseResponse{
			RewardPortion: phase.RewardPortion.String(),
			Recipient:     phase.Recipient.Hex(),
		})
	}
	return auctionResponse{
		Id:              auction.Id,
		Sequence:        auction.Sequence,
		WindowStart:     auction.WindowStart,
		RngRequestId:    auction.RngRequestId,
		RngCompletedAt:  auction.RngCompletedAt,
		RandomNumber:    auction.RandomNumber,
		DrawCompletedAt: auction.DrawCompletedAt,
		Phases:          phases,
		Ended:           auction.IsEnded(),
		Failed:          auction.IsFailed(),
	}
}

func parseAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, errors.New("invalid address")
	}
	return common.HexToAddress(addr), nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorizedCaller):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domain.ErrZeroAddress),
		errors.Is(err, domain.ErrBeforeGenesis):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrNoAuctionInProgress):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrRngNotCompleted),
		errors.Is(err, domain.ErrRngAlreadyRequested),
		errors.Is(err, domain.ErrDrawAlreadyCompleted),
		errors.Is(err, domain.ErrAlreadyRelayed):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrAuctionExpired),
		errors.Is(err, domain.ErrDrawAuctionExpired),
		errors.Is(err, domain.ErrOutOfWindow):
		writeError(w, http.StatusGone, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nolint:errcheck
	json.NewEncoder(w).Encode(body)
}

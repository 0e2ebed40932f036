package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type AuctionEvent interface {
	isEvent()
}

func (e AuctionStarted) isEvent()     {}
func (e RngRequested) isEvent()       {}
func (e DrawCompleted) isEvent()      {}
func (e RewardsDistributed) isEvent() {}
func (e RelayDispatched) isEvent()    {}
func (e AuctionFailed) isEvent()      {}

type AuctionStarted struct {
	Id           string
	Sequence     uint64
	WindowStart  int64
	RngDuration  int64
	DrawDuration int64
	NumPhases    int
	Timestamp    int64
}

type RngRequested struct {
	Id            string
	RequestId     uint64
	Recipient     common.Address
	RewardPortion decimal.Decimal
	Timestamp     int64
}

type DrawCompleted struct {
	Id             string
	RequestId      uint64
	RandomNumber   uint64
	RngCompletedAt int64
	Caller         common.Address
	Recipient      common.Address
	RewardPortion  decimal.Decimal
	Timestamp      int64
}

type Payout struct {
	PhaseIndex int
	Recipient  common.Address
	Amount     uint64
}

type RewardsDistributed struct {
	Id string
	// Reserve is the snapshot the portions were applied against.
	Reserve   uint64
	Payouts   []Payout
	Timestamp int64
}

type RelayDispatched struct {
	Id                 string
	MessageId          string
	DestinationChainId uint64
	RemoteOwner        common.Address
	RemoteListener     common.Address
	Recipient          common.Address
	Timestamp          int64
}

type AuctionFailed struct {
	Id        string
	Reason    string
	Timestamp int64
}

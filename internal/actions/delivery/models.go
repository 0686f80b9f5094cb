package delivery

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"commitgood/pkg/domain"
)

// Verification is a courier's completed delivery as attested by the verifier.
type Verification struct {
	Courier         common.Address
	CourierID       domain.ActorID
	Recipient       common.Address
	RecipientID     domain.ActorID
	ItemDescription string
	TotalWeight     *uint256.Int
}

type EventDeliveryRequested struct {
	Recipient       common.Address `json:"recipient"`
	RecipientID     domain.ActorID `json:"recipientId"`
	ItemDescription string         `json:"itemDescription"`
}

func (EventDeliveryRequested) EventName() string { return "EventDeliveryRequested" }
func (EventDeliveryRequested) Signature() string {
	return "EventDeliveryRequested(address,uint256,string)"
}

type EventDeliveryVerify struct {
	Courier         common.Address `json:"courier"`
	CourierID       domain.ActorID `json:"courierId"`
	Recipient       common.Address `json:"recipient"`
	RecipientID     domain.ActorID `json:"recipientId"`
	ItemDescription string         `json:"itemDescription"`
	TotalWeight     *uint256.Int   `json:"totalWeight"`
	Reward          *uint256.Int   `json:"reward"`
}

func (EventDeliveryVerify) EventName() string { return "EventDeliveryVerify" }
func (EventDeliveryVerify) Signature() string {
	return "EventDeliveryVerify(address,uint256,address,uint256,string,uint256,uint256)"
}

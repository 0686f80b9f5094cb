package catalog

import "github.com/ethereum/go-ethereum/common"

// Entries are the addresses the catalog points at. Unset entries are zero.
type Entries struct {
	Address    common.Address `json:"address"`
	Registry   common.Address `json:"registry"`
	RateOfGood common.Address `json:"rateOfGood"`
}

type EventSetRegistryContract struct {
	Kontract common.Address `json:"kontract"`
}

func (EventSetRegistryContract) EventName() string { return "EventSetRegistryContract" }
func (EventSetRegistryContract) Signature() string { return "EventSetRegistryContract(address)" }

type EventSetRateOfGoodContract struct {
	Kontract common.Address `json:"kontract"`
}

func (EventSetRateOfGoodContract) EventName() string { return "EventSetRateOfGoodContract" }
func (EventSetRateOfGoodContract) Signature() string { return "EventSetRateOfGoodContract(address)" }

package rates

import (
	"math/big"
	"strings"

	dErrors "commitgood/pkg/domain-errors"
)

// Category is an action category with its own reward rate.
type Category string

const (
	CategoryDelivery    Category = "delivery"
	CategoryVolunteer   Category = "volunteer"
	CategoryFundRaising Category = "fundraising"
	CategoryInKind      Category = "inkind"
)

// Categories lists every category in table order.
var Categories = []Category{CategoryDelivery, CategoryVolunteer, CategoryFundRaising, CategoryInKind}

func (c Category) IsValid() bool {
	switch c {
	case CategoryDelivery, CategoryVolunteer, CategoryFundRaising, CategoryInKind:
		return true
	}
	return false
}

// ParseCategory accepts the category names used on the HTTP surface.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown rate category: "+s)
	}
	return c, nil
}

// Table is a snapshot of every rate.
type Table struct {
	Delivery    *big.Int `json:"delivery"`
	Volunteer   *big.Int `json:"volunteer"`
	FundRaising *big.Int `json:"fundRaising"`
	InKind      *big.Int `json:"inKind"`
}

// Rate change events, one per category.

type EventSetDeliveryRateOfGood struct {
	Value *big.Int `json:"value"`
}

func (EventSetDeliveryRateOfGood) EventName() string { return "EventSetDeliveryRateOfGood" }
func (EventSetDeliveryRateOfGood) Signature() string { return "EventSetDeliveryRateOfGood(int256)" }

type EventSetVolunteerRateOfGood struct {
	Value *big.Int `json:"value"`
}

func (EventSetVolunteerRateOfGood) EventName() string { return "EventSetVolunteerRateOfGood" }
func (EventSetVolunteerRateOfGood) Signature() string { return "EventSetVolunteerRateOfGood(int256)" }

type EventSetFundRaisingRateOfGood struct {
	Value *big.Int `json:"value"`
}

func (EventSetFundRaisingRateOfGood) EventName() string { return "EventSetFundRaisingRateOfGood" }
func (EventSetFundRaisingRateOfGood) Signature() string {
	return "EventSetFundRaisingRateOfGood(int256)"
}

type EventSetInKindRateOfGood struct {
	Value *big.Int `json:"value"`
}

func (EventSetInKindRateOfGood) EventName() string { return "EventSetInKindRateOfGood" }
func (EventSetInKindRateOfGood) Signature() string { return "EventSetInKindRateOfGood(int256)" }

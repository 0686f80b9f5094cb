package httptransport

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"commitgood/internal/ledger"
	"commitgood/internal/rates"
	"commitgood/internal/state"
	audit "commitgood/pkg/platform/audit"
)

// ReceiptResponse is returned by every mutation.
type ReceiptResponse struct {
	TxID string      `json:"txId"`
	Logs []audit.Log `json:"logs"`
}

func toReceiptResponse(r *state.Receipt) ReceiptResponse {
	logs := r.Logs
	if logs == nil {
		logs = []audit.Log{}
	}
	return ReceiptResponse{TxID: r.TxID.String(), Logs: logs}
}

type CheckResponse struct {
	Address    common.Address `json:"address"`
	Authorized bool           `json:"authorized"`
}

type RatesResponse struct {
	Delivery    string `json:"delivery"`
	Volunteer   string `json:"volunteer"`
	FundRaising string `json:"fundRaising"`
	InKind      string `json:"inKind"`
}

func toRatesResponse(t *rates.Table) RatesResponse {
	str := func(v *big.Int) string {
		if v == nil {
			return "0"
		}
		return v.String()
	}
	return RatesResponse{
		Delivery:    str(t.Delivery),
		Volunteer:   str(t.Volunteer),
		FundRaising: str(t.FundRaising),
		InKind:      str(t.InKind),
	}
}

type BalanceResponse struct {
	Address common.Address `json:"address"`
	Balance string         `json:"balance"`
}

type AllowanceResponse struct {
	Owner     common.Address `json:"owner"`
	Spender   common.Address `json:"spender"`
	Allowance string         `json:"allowance"`
}

type MintAgentResponse struct {
	Address common.Address `json:"address"`
	Enabled bool           `json:"enabled"`
}

type DeploymentResponse struct {
	Owner     common.Address   `json:"owner"`
	Addresses ledger.Addresses `json:"addresses"`
}

type EventsResponse struct {
	Events []audit.Log `json:"events"`
}

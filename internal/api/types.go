package api

import (
	"github.com/shopspring/decimal"

	"github.com/johnlangs/cashcanvas/internal/app"
)

type (
	createLinkTokenResp struct {
		LinkToken string `json:"link_token"`
	}

	exchangePublicTokenReq struct {
		PublicToken     string `json:"public_token"`
		InstitutionName string `json:"institution_name"`
	}

	accountsResponse struct {
		Balance  decimal.Decimal  `json:"balance"`
		Accounts []app.AccountDTO `json:"accounts"`
	}

	transactionResponse struct {
		NumberOfTransactions int                  `json:"number_of_transactions"`
		Transactions         []app.TransactionDTO `json:"transactions"`
	}

	updateStatsReq struct {
		TotalCounterClicks *int `json:"total_counter_clicks"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

package ledger

// Account addresses a ledger account: an owner principal plus an optional
// sub-account. The sub-account is always the default (empty) value in this
// client.
type Account struct {
	Owner      string `json:"owner"`
	Subaccount []byte `json:"subaccount,omitempty"`
}

// ApproveRequest grants the spender an allowance of AmountE8s minor units.
type ApproveRequest struct {
	Spender   Account
	AmountE8s uint64
}

func (r *ApproveRequest) validate() error {
	if r == nil {
		return errNilRequest
	}
	if r.Spender.Owner == "" {
		return errSpenderRequired
	}
	if r.AmountE8s == 0 {
		return errZeroAmount
	}
	return nil
}

type approveArgs struct {
	Spender Account `json:"spender"`
	Amount  uint64  `json:"amount"`
	Memo    string  `json:"memo,omitempty"`
}

type balanceArgs struct {
	Account Account `json:"account"`
}

type balanceReply struct {
	E8s uint64 `json:"e8s"`
}

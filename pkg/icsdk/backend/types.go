package backend

// UserProfile is the backend's registered-user record. Absence of a profile
// for an authenticated principal means registration is still required.
type UserProfile struct {
	Nickname string `json:"nickname"`
}

// Box is a time-boxed staking pool. EndDate and RegDate are nanosecond epoch
// timestamps; the box matures once wall-clock time reaches EndDate.
type Box struct {
	CanisterID      string  `json:"canister_id"`
	CreatorNickname string  `json:"username"`
	RegDate         uint64  `json:"reg_date"`
	EndDate         uint64  `json:"end_date"`
	MinerCount      uint32  `json:"miner_count"`
	UserMiners      []Miner `json:"user_miners"`
}

// Miner is a stake placed into a box by the current user, with its own
// maturity timestamp.
type Miner struct {
	CanisterID string `json:"canister_id"`
	BoxID      string `json:"box_id"`
	RegDate    uint64 `json:"reg_date"`
	EndDate    uint64 `json:"end_date"`
}

type registerArgs struct {
	Nickname string `json:"nickname"`
}

type createBoxArgs struct {
	AmountE8s uint64 `json:"award"`
}

type useBoxArgs struct {
	BoxID     string `json:"box_id"`
	AmountE8s uint64 `json:"amount"`
}

package model

// 1日1回のフラワーゲームの結果
type GameResult struct {
	Won        bool   `json:"won"`
	Attempts   int    `json:"attempts"`
	Reward     string `json:"reward"`
	CouponCode string `json:"coupon_code"`
	GoldenCard int    `json:"golden_card"`
	PlayedOn   string `json:"played_on"`
}

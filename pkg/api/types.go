package api

// SubmitOrderRequest is the REST body for placing an order through the
// venue collaborator.
type SubmitOrderRequest struct {
	ClOrdID  string  `json:"clOrdId"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"` // buy | sell | sell_short
	OrdType  string  `json:"ordType"`
	OrderQty int64   `json:"orderQty"`
	Price    float64 `json:"price,omitempty"`
}

type SubmitOrderResponse struct {
	Status  string `json:"status"`
	ClOrdID string `json:"clOrdId"`
}

type CancelOrderRequest struct {
	ClOrdID     string `json:"clOrdId"`
	OrigClOrdID string `json:"origClOrdId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is a client subscription message.
// Channels: "snapshot", "fills:<symbol>".
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // subscribe | unsubscribe
	Channels []string `json:"channels"`
}

// FillUpdate is pushed on fills:<symbol> for every accepted fill.
type FillUpdate struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	ClOrdID   string  `json:"clOrdId"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Timestamp int64   `json:"timestamp"`
}

// SnapshotUpdate wraps a snapshot for the snapshot channel.
type SnapshotUpdate struct {
	Type     string `json:"type"`
	Snapshot any    `json:"snapshot"`
}

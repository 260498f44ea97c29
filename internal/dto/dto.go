package dto

type CheckoutRequest struct {
	UserID        uint   `json:"user_id"`
	PaymentMethod string `json:"payment_method"`
	ShippingCost  int64  `json:"shipping_cost"`
}

type OrderItem struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
}

type CheckoutResponse struct {
	OrderID           uint        `json:"order_id"`
	OrderNumber       string      `json:"order_number"`
	Status            string      `json:"status"`
	PaymentMethod     string      `json:"payment_method"`
	Subtotal          int64       `json:"subtotal"`
	ShippingCost      int64       `json:"shipping_cost"`
	Total             int64       `json:"total"`
	CoinSubtotal      int64       `json:"coin_subtotal"`
	CoinShippingCost  int64       `json:"coin_shipping_cost"`
	CoinTotal         int64       `json:"coin_total"`
	Items             []OrderItem `json:"items"`
	PaymentURL        string      `json:"payment_url,omitempty"`
	ExternalReference string      `json:"external_reference,omitempty"`
	BalanceAfter      *int64      `json:"balance_after,omitempty"`
}

type CallbackResponse struct {
	ExternalReference string `json:"external_reference"`
	Outcome           string `json:"outcome"`
}

type TopupRequest struct {
	UserID uint  `json:"user_id"`
	Amount int64 `json:"amount"`
}

type TopupResponse struct {
	TopupID           uint   `json:"topup_id"`
	TopupNumber       string `json:"topup_number"`
	Status            string `json:"status"`
	Amount            int64  `json:"amount"`
	PaymentURL        string `json:"payment_url"`
	ExternalReference string `json:"external_reference"`
}

type PpobPricingRequest struct {
	UserID      uint   `json:"user_id"`
	ProductCode string `json:"product_code"`
	// bill amount for postpaid products; prepaid products carry their own price
	BaseAmount int64 `json:"base_amount"`
}

type PpobQuoteResponse struct {
	ProductCode string `json:"product_code"`
	ProductType string `json:"product_type"`
	LevelCode   string `json:"level_code"`
	RuleScope   string `json:"rule_scope,omitempty"`
	BaseAmount  int64  `json:"base_amount"`
	Markup      int64  `json:"markup"`
	AdminFee    int64  `json:"admin_fee"`
	Total       int64  `json:"total"`
	CoinTotal   int64  `json:"coin_total"`
}

type PpobPurchaseRequest struct {
	UserID         uint   `json:"user_id"`
	ProductCode    string `json:"product_code"`
	CustomerNumber string `json:"customer_number"`
	BaseAmount     int64  `json:"base_amount"`
	PayWith        string `json:"pay_with"` // fiat | coin
}

type PpobTransactionResponse struct {
	TransactionID  uint              `json:"transaction_id"`
	Number         string            `json:"number"`
	Status         string            `json:"status"`
	CustomerNumber string            `json:"customer_number"`
	PaidWith       string            `json:"paid_with"`
	Quote          PpobQuoteResponse `json:"quote"`
	BalanceAfter   int64             `json:"balance_after"`
}

type AddCartItemRequest struct {
	UserID    uint  `json:"user_id"`
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CartItem struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CartResponse struct {
	UserID uint       `json:"user_id"`
	Items  []CartItem `json:"items"`
}

package model

// Wire shapes of the payment gateway's invoice API.

type GatewayItemDetail struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type GatewayCustomer struct {
	Name  string
	Email string
	Phone string
}

type GatewayInquiryRequest struct {
	MerchantCode    string              `json:"merchantCode"`
	PaymentAmount   int64               `json:"paymentAmount"`
	MerchantOrderID string              `json:"merchantOrderId"`
	ProductDetails  string              `json:"productDetails"`
	Email           string              `json:"email"`
	PhoneNumber     string              `json:"phoneNumber,omitempty"`
	CustomerVaName  string              `json:"customerVaName"`
	ItemDetails     []GatewayItemDetail `json:"itemDetails,omitempty"`
	CallbackURL     string              `json:"callbackUrl"`
	ReturnURL       string              `json:"returnUrl"`
	Signature       string              `json:"signature"`
	ExpiryPeriod    int                 `json:"expiryPeriod"`
}

type GatewayInquiryResponse struct {
	MerchantCode  string `json:"merchantCode"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	Amount        string `json:"amount"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

// GatewayCallback is what the gateway posts back, either as JSON or as a
// urlencoded form.
type GatewayCallback struct {
	MerchantCode    string `json:"merchantCode" form:"merchantCode"`
	Amount          string `json:"amount" form:"amount"`
	MerchantOrderID string `json:"merchantOrderId" form:"merchantOrderId"`
	ProductDetail   string `json:"productDetail" form:"productDetail"`
	PaymentCode     string `json:"paymentCode" form:"paymentCode"`
	ResultCode      string `json:"resultCode" form:"resultCode"`
	MerchantUserID  string `json:"merchantUserId" form:"merchantUserId"`
	Reference       string `json:"reference" form:"reference"`
	Signature       string `json:"signature" form:"signature"`
}

// RawCallback is a notification as it arrived: the exact body plus the
// fields decoded from it.
type RawCallback struct {
	Body   []byte
	Fields map[string]any
}

func (c *GatewayCallback) AsMap() map[string]any {
	return map[string]any{
		"merchantCode":    c.MerchantCode,
		"amount":          c.Amount,
		"merchantOrderId": c.MerchantOrderID,
		"productDetail":   c.ProductDetail,
		"paymentCode":     c.PaymentCode,
		"resultCode":      c.ResultCode,
		"merchantUserId":  c.MerchantUserID,
		"reference":       c.Reference,
		"signature":       c.Signature,
	}
}

package domain

type CheckoutRequest struct {
	UserID         string
	SessionID      string
	IdempotencyKey string
	Description    string
}

type CheckoutResponse struct {
	CheckoutID    string         `json:"checkout_id"`
	Status        CheckoutStatus `json:"status"`
	PaymentID     string         `json:"payment_id,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

package dtos

// PaysendWebhookPayload is the Paysend-compatible deposit notification body.
type PaysendWebhookPayload struct {
	TransactionID string                  `json:"transactionId"`
	Status        string                  `json:"status"`
	Recipient     PaysendWebhookRecipient `json:"recipient"`
}

// PaysendWebhookRecipient addresses the wallet to credit.
type PaysendWebhookRecipient struct {
	PhoneNumber string `json:"phone_number"`
	Amount      string `json:"amount"` // decimal string
}

// WebhookIgnoredDTO is returned for notifications whose status is not
// COMPLETED; they are acknowledged but produce no ledger row.
type WebhookIgnoredDTO struct {
	Status string `json:"status"` // always "ignored"
}

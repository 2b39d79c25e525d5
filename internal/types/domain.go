package types

// SubscriptionStatus is the value stored in a user's subscriptionStatus field.
type SubscriptionStatus string

const (
	// SubStatusNone is the default for accounts that never completed a checkout.
	SubStatusNone SubscriptionStatus = ""
	// SubStatusPremium is written after a completed checkout.
	SubStatusPremium SubscriptionStatus = "premium"
)

// MetadataKeyUserID is the checkout-session metadata key carrying the user ID.
// It is the only correlation between session creation and webhook delivery.
const MetadataKeyUserID = "userId"

// CheckoutRequest is a purchase intent submitted by the client application.
type CheckoutRequest struct {
	PriceID string `json:"priceId" validate:"required,notblank"`
	UserID  string `json:"userId" validate:"required,notblank"`
}

// RedirectURLs holds the post-checkout redirect targets. They are always built
// server-side from the configured frontend origin, never taken from the caller.
type RedirectURLs struct {
	Success string
	Cancel  string
}

// CheckoutSessionInput is what the relay asks the payment processor to create.
type CheckoutSessionInput struct {
	PriceID            string
	Quantity           int64
	UserID             string
	PaymentMethodTypes []string
	URLs               RedirectURLs
}

// CheckoutSession is the processor-issued handle returned to the caller.
type CheckoutSession struct {
	ID  string
	URL string
}

// UserRecord mirrors the subscription-relevant part of a user document.
type UserRecord struct {
	ID                 string             `firestore:"-" json:"id"`
	SubscriptionStatus SubscriptionStatus `firestore:"subscriptionStatus" json:"subscriptionStatus"`
}

package types

// Telemetry metric names for CloudWatch.
const (
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"
	MetricWebhookOutcome  = "WebhookOutcome"
	MetricCheckoutCreated = "CheckoutSessionCreated"
	MetricCheckoutFailed  = "CheckoutSessionFailed"

	DimEndpoint  = "Endpoint"
	DimMethod    = "Method"
	DimStatus    = "Status"
	DimEventType = "EventType"
	DimOutcome   = "Outcome"

	DefaultMetricNamespace = "SynkCamp"
)

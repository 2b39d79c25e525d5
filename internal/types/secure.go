package types

const redactedPlaceholder = "***REDACTED***"

// SecretString holds a credential (Stripe keys, the webhook signing secret,
// the Firebase service-account JSON). String and MarshalJSON return a
// placeholder, so a Config can be logged or dumped without leaking secrets.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}

// IsSet reports whether a non-empty secret was configured.
func (s SecretString) IsSet() bool {
	return s != ""
}

// Unmask returns the raw plaintext value. Call it only at the point where the
// secret is handed to an SDK or HTTP header.
func (s SecretString) Unmask() string {
	return string(s)
}

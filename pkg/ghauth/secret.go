package ghauth

// Secret wraps a sensitive credential string to prevent accidental logging.
//
// The type implements fmt.Stringer and the marshal interfaces to return
// "[REDACTED]" instead of the wrapped value, so a secret that ends up in a
// log message, error string, or serialized structure never leaks. The real
// value is only reachable through Value.
//
// Usage:
//
//	code := ghauth.NewSecret("device-code-value")
//	fmt.Println(code)         // prints: [REDACTED]
//	form.Set("device_code", code.Value())
type Secret struct {
	value string
}

// NewSecret creates a Secret wrapping the given value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Value returns the wrapped value.
// Use this only to place the credential in an HTTP request. Never log the
// result of this method.
func (s Secret) Value() string {
	return s.value
}

// String implements fmt.Stringer, returning "[REDACTED]" to prevent
// accidental logging of the value.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting, also returning
// "[REDACTED]".
func (s Secret) GoString() string {
	return "ghauth.Secret{[REDACTED]}"
}

// IsEmpty returns true if no value is set.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]"
// to prevent accidental serialization of the value.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler, returning "[REDACTED]"
// to prevent accidental JSON serialization of the value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so server responses
// can populate the secret.
func (s *Secret) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}

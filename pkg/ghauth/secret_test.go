package ghauth

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecret_String(t *testing.T) {
	code := NewSecret("3584d83530557fdd1f46af8289938c8ef79f9dc5")

	if code.String() != "[REDACTED]" {
		t.Errorf("Expected [REDACTED], got %s", code.String())
	}

	if code.Value() != "3584d83530557fdd1f46af8289938c8ef79f9dc5" {
		t.Errorf("Expected actual value, got %s", code.Value())
	}
}

func TestSecret_Printf(t *testing.T) {
	code := NewSecret("device-code-value")

	result := fmt.Sprintf("code: %s", code)
	if result != "code: [REDACTED]" {
		t.Errorf("Expected 'code: [REDACTED]', got %s", result)
	}

	result = fmt.Sprintf("code: %v", code)
	if result != "code: [REDACTED]" {
		t.Errorf("Expected 'code: [REDACTED]', got %s", result)
	}

	result = fmt.Sprintf("code: %#v", code)
	if result != "code: ghauth.Secret{[REDACTED]}" {
		t.Errorf("Expected 'code: ghauth.Secret{[REDACTED]}', got %s", result)
	}
}

func TestSecret_IsEmpty(t *testing.T) {
	if !NewSecret("").IsEmpty() {
		t.Error("Expected empty secret to return true for IsEmpty()")
	}
	if NewSecret("value").IsEmpty() {
		t.Error("Expected non-empty secret to return false for IsEmpty()")
	}
}

func TestSecret_MarshalRedacts(t *testing.T) {
	code := NewSecret("secret-value")

	data, err := json.Marshal(code)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != `"[REDACTED]"` {
		t.Errorf("Expected \"[REDACTED]\", got %s", string(data))
	}

	text, err := code.MarshalText()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(text) != "[REDACTED]" {
		t.Errorf("Expected [REDACTED], got %s", string(text))
	}
}

func TestSecret_UnmarshalReadsValue(t *testing.T) {
	var grant DeviceGrant
	payload := `{"device_code":"3584d835","user_code":"WDJB-MJHT","verification_uri":"https://github.com/login/device","expires_in":900,"interval":5}`
	if err := json.Unmarshal([]byte(payload), &grant); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if grant.DeviceCode.Value() != "3584d835" {
		t.Errorf("Expected device code to unmarshal, got %s", grant.DeviceCode.Value())
	}

	// Re-marshaling the grant must not leak the code back out.
	data, err := json.Marshal(grant)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if want := `"device_code":"[REDACTED]"`; !strings.Contains(string(data), want) {
		t.Errorf("Expected marshaled grant to contain %s, got %s", want, string(data))
	}
}

func TestSecret_InError(t *testing.T) {
	code := NewSecret("secret-value")

	err := fmt.Errorf("polling failed for code %s", code)
	if err.Error() != "polling failed for code [REDACTED]" {
		t.Errorf("Expected redacted error, got %s", err.Error())
	}
}

package registration

import (
	"errors"
	"strings"
	"testing"
)

const testSecret = "test-jwt-secret-for-device-tokens"

func TestGenerateParseDeviceToken(t *testing.T) {
	token, err := GenerateDeviceToken("alice_esp01", "alice_esp01@petfeeder.com", testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token is not a JWT: %s", token)
	}

	claims, err := ParseDeviceToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseDeviceToken() error = %v", err)
	}
	if claims.DeviceID != "alice_esp01" {
		t.Errorf("DeviceID = %s, want alice_esp01", claims.DeviceID)
	}
	if claims.ESPEmail != "alice_esp01@petfeeder.com" {
		t.Errorf("ESPEmail = %s, want alice_esp01@petfeeder.com", claims.ESPEmail)
	}
	if claims.Subject != "alice_esp01" {
		t.Errorf("Subject = %s, want alice_esp01", claims.Subject)
	}
}

func TestParseDeviceToken_WrongSecret(t *testing.T) {
	token, err := GenerateDeviceToken("alice_esp01", "alice_esp01@petfeeder.com", testSecret, 24)
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}

	if _, err := ParseDeviceToken(token, "a-different-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseDeviceToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseDeviceToken_Garbage(t *testing.T) {
	if _, err := ParseDeviceToken("not.a.token", testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseDeviceToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestGenerateDeviceToken_DefaultTTL(t *testing.T) {
	token, err := GenerateDeviceToken("alice_esp01", "alice_esp01@petfeeder.com", testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}

	claims, err := ParseDeviceToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseDeviceToken() error = %v", err)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Error("default TTL token has no future expiry")
	}
}

package registration

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is returned when a device token fails validation.
var ErrTokenInvalid = errors.New("registration: invalid device token")

// DeviceClaims extends JWT standard claims with feeder identity fields.
type DeviceClaims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"deviceId"`
	ESPEmail string `json:"espEmail"`
}

// GenerateDeviceToken creates a signed JWT the feeder firmware presents
// as its API key. Device tokens are long-lived because firmware has no
// refresh flow.
func GenerateDeviceToken(deviceID, espEmail, secret string, ttlHours int) (string, error) {
	if ttlHours <= 0 {
		ttlHours = 24 * 365 //nolint:mnd // default one-year device token TTL
	}

	now := time.Now()
	claims := DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
			ID:        uuid.NewString(),
		},
		DeviceID: deviceID,
		ESPEmail: espEmail,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing device token: %w", err)
	}
	return signed, nil
}

// ParseDeviceToken validates and parses a device token, returning the claims.
// It checks the signature, expiry, and required fields.
func ParseDeviceToken(tokenString, secret string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.DeviceID == "" {
		return nil, fmt.Errorf("%w: missing device id", ErrTokenInvalid)
	}

	return claims, nil
}

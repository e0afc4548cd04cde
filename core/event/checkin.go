package event

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/trace/core"
)

const payloadPrefix = "trace:checkin:"

// DefaultQRSize is the side, in pixels, of generated QR code images.
const DefaultQRSize = 256

var ErrInvalidPayload = core.NewArgumentError("invalid check-in code")

// NewCheckinToken returns a fresh random token for an event's QR code.
func NewCheckinToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// CheckinPayload is the text encoded in an event's QR code.
func CheckinPayload(eventID, token string) string {
	return payloadPrefix + eventID + ":" + token
}

// ParseCheckinPayload extracts the event id and token out of a scanned QR code.
func ParseCheckinPayload(payload string) (eventID, token string, err error) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, payloadPrefix) {
		return "", "", ErrInvalidPayload
	}
	parts := strings.Split(strings.TrimPrefix(payload, payloadPrefix), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidPayload
	}
	return parts[0], parts[1], nil
}

// QRCodePNG renders payload as a PNG image of size x size pixels.
func QRCodePNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encoding QR code")
	}
	return png, nil
}

// QRCodeText renders payload with block characters, for terminals.
func QRCodeText(payload string) (string, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", errors.Wrap(err, "encoding QR code")
	}
	return qr.ToSmallString(false), nil
}

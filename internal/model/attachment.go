package model

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxAttachmentBytes = 10 * 1024 * 1024

var (
	ErrAttachmentTooLarge = errors.New("model: attachment too large")
	ErrInvalidDataURL     = errors.New("model: invalid attachment data url")
)

type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	Data       string    `json:"data"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func NewAttachment(id, name, mimeType string, payload []byte, now time.Time) (Attachment, error) {
	if len(payload) > MaxAttachmentBytes {
		return Attachment{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrAttachmentTooLarge, name, len(payload), MaxAttachmentBytes)
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	return Attachment{
		ID:         id,
		Name:       name,
		Type:       mimeType,
		Size:       int64(len(payload)),
		Data:       "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload),
		UploadedAt: now,
	}, nil
}

// Decode returns the payload carried by the data URL.
func (a Attachment) Decode() ([]byte, error) {
	rest, ok := strings.CutPrefix(a.Data, "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	out, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return out, nil
}

package model

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestAttachmentRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	payload := []byte("hello tasker")
	att, err := NewAttachment("att-1", "notes.txt", "text/plain", payload, now)
	if err != nil {
		t.Fatalf("new attachment: %v", err)
	}
	if att.Size != int64(len(payload)) || att.Data != "data:text/plain;base64,aGVsbG8gdGFza2Vy" {
		t.Fatalf("unexpected attachment: %+v", att)
	}
	got, err := att.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("decode = %q, want %q", got, payload)
	}
}

func TestAttachmentTooLarge(t *testing.T) {
	_, err := NewAttachment("att-1", "big.bin", "", make([]byte, MaxAttachmentBytes+1), time.Now())
	if !errors.Is(err, ErrAttachmentTooLarge) {
		t.Fatalf("expected ErrAttachmentTooLarge, got %v", err)
	}
}

func TestAttachmentDecodeInvalid(t *testing.T) {
	if _, err := (Attachment{Data: "not-a-data-url"}).Decode(); !errors.Is(err, ErrInvalidDataURL) {
		t.Fatalf("expected ErrInvalidDataURL, got %v", err)
	}
}

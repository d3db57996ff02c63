package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidReminderKind = errors.New("model: invalid reminder kind")
	ErrInvalidFlag         = errors.New("model: invalid notification flag")
)

type ReminderKind string

const (
	ReminderFiveMin ReminderKind = "5min"
	ReminderOnTime  ReminderKind = "ontime"
)

func (k ReminderKind) IsValid() bool {
	switch k {
	case ReminderFiveMin, ReminderOnTime:
		return true
	default:
		return false
	}
}

// Flag is the flag that gates the kind; it is checked before firing.
func (k ReminderKind) Flag() NotificationFlag {
	if k == ReminderFiveMin {
		return FlagNotified5Min
	}
	return FlagNotifiedOnTime
}

// Flags lists every flag written once a reminder of this kind was shown.
func (k ReminderKind) Flags() []NotificationFlag {
	switch k {
	case ReminderFiveMin:
		return []NotificationFlag{FlagNotified5Min}
	case ReminderOnTime:
		return []NotificationFlag{FlagNotifiedOnTime, FlagNotified}
	default:
		return nil
	}
}

func ParseReminderKind(raw string) (ReminderKind, error) {
	k := ReminderKind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReminderKind, raw)
	}
	return k, nil
}

type NotificationFlag string

const (
	FlagNotified       NotificationFlag = "notified"
	FlagNotified5Min   NotificationFlag = "notified5min"
	FlagNotifiedOnTime NotificationFlag = "notifiedOnTime"
)

func (f NotificationFlag) bit() FlagSet {
	switch f {
	case FlagNotified:
		return 1 << 0
	case FlagNotified5Min:
		return 1 << 1
	case FlagNotifiedOnTime:
		return 1 << 2
	default:
		return 0
	}
}

func (f NotificationFlag) IsValid() bool {
	return f.bit() != 0
}

func ParseFlag(raw string) (NotificationFlag, error) {
	f := NotificationFlag(strings.TrimSpace(raw))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFlag, raw)
	}
	return f, nil
}

// FlagSet records which notification flags were already written for a task.
type FlagSet uint8

func (s FlagSet) Has(f NotificationFlag) bool {
	b := f.bit()
	return b != 0 && s&b == b
}

func (s FlagSet) With(flags ...NotificationFlag) FlagSet {
	for _, f := range flags {
		s |= f.bit()
	}
	return s
}

func (s FlagSet) Empty() bool { return s == 0 }

func (s FlagSet) Flags() []NotificationFlag {
	out := make([]NotificationFlag, 0, 3)
	for _, f := range []NotificationFlag{FlagNotified, FlagNotified5Min, FlagNotifiedOnTime} {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

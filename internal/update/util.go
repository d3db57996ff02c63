package update

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func levelFromError(isErr bool) string {
	if isErr {
		return "error"
	}
	return "info"
}

func (m *Model) notify(title, body, level string) {
	m.Notifications = append(m.Notifications, Notification{Title: title, Body: body, Level: level, At: m.deps.Now()})
	if len(m.Notifications) > maxNotifications {
		m.Notifications = m.Notifications[len(m.Notifications)-maxNotifications:]
	}
}

// resolveDate accepts YYYY-MM-DD, today, tomorrow or +Nd relative to now.
func resolveDate(raw string, now time.Time) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "today":
		return now.Format(dateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(dateLayout), nil
	}
	if days, ok := strings.CutPrefix(raw, "+"); ok {
		n, err := strconv.Atoi(strings.TrimSuffix(days, "d"))
		if err != nil || n < 0 {
			return "", invalidArg("bad relative date %q", raw)
		}
		return now.AddDate(0, 0, n).Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", invalidArg("bad date %q (want YYYY-MM-DD)", raw)
	}
	return raw, nil
}

// resolveClock accepts HH:MM or HH:MM:SS.
func resolveClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, raw); err == nil {
			return raw, nil
		}
	}
	return "", invalidArg("bad time %q (want HH:MM)", raw)
}


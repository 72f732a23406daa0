package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Shared lookups.  Unset or unparsable values fall back to the default.

func envStr(k, d string) string {
    if v := strings.TrimSpace(os.Getenv(k)); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
        return n
    }
    return d
}

func envFloat(k string, d float64) float64 {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
        return f
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
        return dur
    }
    return d
}

func envList(k string, d []string) []string {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    var out []string
    for _, p := range strings.Split(v, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    if len(out) == 0 {
        return d
    }
    return out
}

// parseClock parses "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, bool) {
    t, err := time.Parse("15:04", strings.TrimSpace(s))
    if err != nil {
        return 0, false
    }
    return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

package configstore

import (
	"context"
	"fmt"
	"strings"
)

// Report is the result of a critical-configuration check.
type Report struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// ValidateCritical runs best-effort sanity checks over well-known
// settings. Missing optional settings produce warnings; invalid values
// produce errors. It never fails outright.
func (s *Store) ValidateCritical(ctx context.Context) Report {
	report := Report{Valid: true, Warnings: []string{}, Errors: []string{}}

	if v, err := s.GetByName(ctx, "PORT"); err == nil {
		if port, ok := asInt(v); ok {
			if port < 1 || port > 65535 {
				report.Errors = append(report.Errors, fmt.Sprintf("invalid port number: %d", port))
				report.Valid = false
			}
		} else {
			report.Errors = append(report.Errors, fmt.Sprintf("port is not a number: %v", v))
			report.Valid = false
		}
	}

	if v, err := s.GetByName(ctx, "OPENAI_API_KEY"); err == nil {
		key, _ := v.(string)
		if strings.TrimSpace(key) == "" {
			report.Warnings = append(report.Warnings, "OpenAI API key is not set")
		}
	} else {
		report.Warnings = append(report.Warnings, "OpenAI API key is not set")
	}

	if v, err := s.GetByName(ctx, "DATABASE_HOST"); err == nil {
		host, _ := v.(string)
		if host == "" {
			report.Warnings = append(report.Warnings, "Database host is not set")
		}
	}

	return report
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

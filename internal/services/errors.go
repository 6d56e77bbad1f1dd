package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuth          = errors.New("authorization error")
	ErrConnectivity  = errors.New("connection error")
	ErrUnknownServer = errors.New("unexpected server response")
	ErrConfiguration = errors.New("configuration error")
	ErrPermission    = errors.New("permission error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later outcome classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUnknownServer
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether err describes a remote outage or a rejected
// credential. Only these failures may be softened by silent-failure mode.
func Recoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrUnknownServer) {
		return false
	}
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrConnectivity)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Package classify maps dispatch failures, whether transport errors or
// HTTP status codes, onto the closed set of error kinds recorded on a run.
package classify

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/aibekov/webcron/internal/domain"
)

// FromError classifies a transport-level failure. The rules apply in
// order: timeouts first, then name-resolution failures, then refused
// connections, then anything else on the wire.
func FromError(err error) domain.ErrorKind {
	if err == nil {
		return domain.ErrorUnknown
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.ErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.ErrorDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		if containsDNSHint(opErr.Error()) {
			return domain.ErrorDNS
		}
		return domain.ErrorConnectionRefused
	}

	// Wrapped errors from non-net transports only expose their message.
	msg := err.Error()
	if containsDNSHint(msg) {
		return domain.ErrorDNS
	}
	if strings.Contains(msg, "connection refused") {
		return domain.ErrorConnectionRefused
	}
	return domain.ErrorNetwork
}

// FromStatusCode classifies a received, non-2xx HTTP status code.
func FromStatusCode(code int) domain.ErrorKind {
	switch {
	case code >= 500 && code < 600:
		return domain.ErrorHTTP5xx
	case code >= 400 && code < 500:
		return domain.ErrorHTTP4xx
	default:
		return domain.ErrorUnknown
	}
}

func containsDNSHint(msg string) bool {
	return strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "name resolution") ||
		strings.Contains(msg, "lookup ")
}

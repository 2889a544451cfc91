package resilience

import (
	"errors"
	"strings"

	"github.com/gorilla/websocket"
)

// Classification buckets a failure by whether retrying can help.
type Classification int

const (
	// ClassTransient errors are plausibly resolved by retrying (network
	// blip, timeout, agent restarting).
	ClassTransient Classification = iota
	// ClassApplication errors reflect a business-rule rejection that no
	// amount of retrying can fix (wrong password, expired certificate).
	ClassApplication
	// ClassUnknown errors could go either way; they are retried.
	ClassUnknown
)

func (c Classification) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassApplication:
		return "application"
	case ClassUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// transientCloseCodes are peer-initiated disconnects, abnormal closures and
// overload/restart conditions. Any other close code means the agent itself
// rejected the exchange.
var transientCloseCodes = map[int]bool{
	websocket.CloseGoingAway:         true, // 1001
	websocket.CloseAbnormalClosure:   true, // 1006
	websocket.CloseInternalServerErr: true, // 1011
	websocket.CloseServiceRestart:    true, // 1012
	websocket.CloseTryAgainLater:     true, // 1013
	1014:                             true, // bad gateway
}

// applicationVocabulary matches rejections the signing agent emits for
// business-rule failures.
var applicationVocabulary = []string{
	"invalid key",
	"certificate expired",
	"certificate not yet valid",
	"wrong password",
	"key not found",
	"certificate revoked",
}

var transientVocabulary = []string{
	"network",
	"connection",
	"timeout",
	"refused",
	"reset",
	"socket",
	"websocket",
}

// Classify maps an arbitrary failure to a Classification. It is pure and
// total: it never fails and the same error always classifies the same way.
//
// Priority order: raw close codes first, then the dedicated timeout kind,
// then the application vocabulary, then the transient vocabulary.
func Classify(err error) Classification {
	if err == nil {
		return ClassUnknown
	}

	if code, ok := closeCode(err); ok {
		if transientCloseCodes[code] {
			return ClassTransient
		}
		return ClassApplication
	}

	// Timeouts are transient regardless of message content.
	var te *TimeoutError
	if errors.As(err, &te) {
		return ClassTransient
	}

	msg := strings.ToLower(err.Error())
	for _, kw := range applicationVocabulary {
		if strings.Contains(msg, kw) {
			return ClassApplication
		}
	}
	for _, kw := range transientVocabulary {
		if strings.Contains(msg, kw) {
			return ClassTransient
		}
	}

	return ClassUnknown
}

// IsRetryable reports whether the retry engine should attempt the operation
// again. Transient and unknown failures are retryable; application failures
// never are.
func IsRetryable(err error) bool {
	return Classify(err) != ClassApplication
}

func closeCode(err error) (int, bool) {
	var cce *CloseCodeError
	if errors.As(err, &cce) {
		return cce.Code, true
	}
	var wce *websocket.CloseError
	if errors.As(err, &wce) {
		return wce.Code, true
	}
	return 0, false
}

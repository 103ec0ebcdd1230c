package adapter

import (
	"context"
	"net"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dbterm/dbterm/dberr"
)

var authMarkers = []string{
	"access denied",
	"authentication failed",
	"password authentication",
	"login failed",
	"login error",
	"auth failed",
	"invalid password",
	"authentication error",
}

// mapConnectError classifies a driver connect failure into the error kinds
// the UI understands. Dialect adapters call it after their typed checks.
func mapConnectError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(dberr.ErrConnectionRefused, "connect timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Wrapf(dberr.ErrConnectionRefused, "%v", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Wrapf(dberr.ErrConnectionRefused, "%v", err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return errors.Wrapf(dberr.ErrAuthFailed, "%v", err)
		}
	}
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") {
		return errors.Wrapf(dberr.ErrConnectionRefused, "%v", err)
	}
	return err
}

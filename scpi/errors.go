package scpi

import "errors"

var (
	// ErrConnectFailed indicates that opening the transport to the
	// instrument address failed (unreachable or invalid address).
	ErrConnectFailed = errors.New("scpi: connect failed")

	// ErrTimeout indicates that a single transport round trip did not
	// complete within the configured timeout.
	ErrTimeout = errors.New("scpi: timeout")

	// ErrConnClosed indicates an operation on a closed transport.
	ErrConnClosed = errors.New("scpi: connection closed")

	// ErrCommandNotConfirmed indicates that completion polling exceeded
	// its deadline: the instrument never reported the command as
	// executed. The command may or may not have taken effect.
	ErrCommandNotConfirmed = errors.New("scpi: command not confirmed before deadline")

	// ErrBadResponse indicates a malformed instrument response that could
	// not be parsed in the expected shape.
	ErrBadResponse = errors.New("scpi: malformed instrument response")
)

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

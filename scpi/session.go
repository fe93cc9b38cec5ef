package scpi

import (
	"fmt"
	"strings"
	"time"

	"github.com/rbeignon/go-rsbench/internal/util"
	"github.com/rbeignon/go-rsbench/logger"
)

// Session is the base of every instrument session: it owns the transport
// exclusively, performs the open handshake (identification, status clear,
// reset), and provides the command-completion primitive that all
// state-mutating driver operations route through.
//
// A Session is not safe for concurrent use; the instrument has one
// addressable state shared across calls.
type Session struct {
	cfg       *SessionConfig
	address   string
	model     string
	transport Transport
	logger    logger.Logger
	metrics   SessionMetrics
}

// Open opens a session against an instrument address: it acquires the
// transport, reads the identification string, and issues status-clear and
// reset commands through the completion protocol.
func Open(address string, opts ...SessionOption) (*Session, error) {
	cfg, err := NewSessionConfig(opts...)
	if err != nil {
		return nil, err
	}

	transport, err := cfg.dial(address, cfg.timeout)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		address:   address,
		transport: transport,
		logger:    cfg.logger.With("address", address),
	}

	if err := s.handshake(); err != nil {
		_ = transport.Close()
		return nil, err
	}

	s.logger.Info("session opened", "model", s.model)

	return s, nil
}

func (s *Session) handshake() error {
	idn, err := s.Query("*IDN?")
	if err != nil {
		return err
	}

	// "<vendor>,<model>,<serial>,<firmware>"
	fields := strings.Split(idn, ",")
	if len(fields) < 2 {
		return fmt.Errorf("%w: identification reply %q", ErrBadResponse, idn)
	}
	s.model = strings.TrimSpace(fields[1])

	if err := s.CommandWait("*CLS"); err != nil {
		return err
	}

	return s.CommandWait("*RST")
}

// Address returns the instrument address the session was opened against.
func (s *Session) Address() string { return s.address }

// Model returns the model field of the instrument's identification reply,
// e.g. "SMB100A" or "HMP2030".
func (s *Session) Model() string { return s.model }

// Timeout returns the per-round-trip timeout.
func (s *Session) Timeout() time.Duration { return s.cfg.timeout }

// Metrics returns the session's transport metrics.
func (s *Session) Metrics() *SessionMetrics { return &s.metrics }

// Logger returns the session logger.
func (s *Session) Logger() logger.Logger { return s.logger }

// Close releases the transport. Driver sessions de-energize the
// instrument before calling this.
func (s *Session) Close() error {
	s.logger.Info("session closed")
	return s.transport.Close()
}

// Write sends one raw command line without completion confirmation.
// Driver operations use CommandWait for state mutations; Write is for
// single-shot actions that have no observable completion.
func (s *Session) Write(cmd string) error {
	s.metrics.incWriteCount()
	s.logger.Debug("write", "cmd", cmd)

	err := s.transport.Write(cmd)
	if err != nil {
		s.countErr(err)
	}

	return err
}

// Query sends a query and returns the instrument's reply line.
func (s *Session) Query(cmd string) (string, error) {
	s.metrics.incQueryCount()

	reply, err := s.transport.Query(cmd)
	if err != nil {
		s.countErr(err)
		return "", err
	}
	s.logger.Debug("query", "cmd", cmd, "reply", reply)

	return reply, nil
}

// QueryFloat sends a query and parses the reply as a float64.
func (s *Session) QueryFloat(cmd string) (float64, error) {
	reply, err := s.Query(cmd)
	if err != nil {
		return 0, err
	}

	v, err := util.ParseFloatReply(reply)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadResponse, cmd, err)
	}

	return v, nil
}

// QueryBool sends a query and parses the reply as a 0/1 flag.
func (s *Session) QueryBool(cmd string) (bool, error) {
	reply, err := s.Query(cmd)
	if err != nil {
		return false, err
	}

	v, err := util.ParseBoolReply(reply)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrBadResponse, cmd, err)
	}

	return v, nil
}

// QueryFloats sends a query and parses the reply as a comma-separated
// float list.
func (s *Session) QueryFloats(cmd string) ([]float64, error) {
	reply, err := s.Query(cmd)
	if err != nil {
		return nil, err
	}

	values, err := util.SplitFloats(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadResponse, cmd, err)
	}

	return values, nil
}

// CommandWait writes a command and blocks until the instrument confirms
// it has finished processing it.
//
// The instrument accepts commands asynchronously, so the sequence is:
// write the command, write "*WAI" to serialize it, then poll "*OPC?"
// until the operation-complete flag reads 1, sleeping the configured poll
// interval between polls. The loop is bounded by the completion timeout;
// on expiry it fails with ErrCommandNotConfirmed and the command may or
// may not have taken effect.
func (s *Session) CommandWait(cmd string) error {
	if err := s.Write(cmd); err != nil {
		return err
	}
	if err := s.Write("*WAI"); err != nil {
		return err
	}

	deadline := s.cfg.clock.Now().Add(s.cfg.CompletionTimeout())
	for {
		s.metrics.incCompletionPollCount()

		reply, err := s.Query("*OPC?")
		if err != nil {
			return err
		}

		done, err := util.ParseBoolReply(reply)
		if err != nil {
			return fmt.Errorf("%w: *OPC?: %v", ErrBadResponse, err)
		}
		if done {
			return nil
		}

		if !s.cfg.clock.Now().Before(deadline) {
			s.logger.Warn("completion poll deadline exceeded", "cmd", cmd)
			return fmt.Errorf("%w: %s", ErrCommandNotConfirmed, cmd)
		}
		s.cfg.clock.Sleep(s.cfg.pollInterval)
	}
}

func (s *Session) countErr(err error) {
	if err == nil {
		return
	}
	if isTimeout(err) {
		s.metrics.incTimeoutCount()
	}
	s.logger.Error("transport error", "error", err)
}

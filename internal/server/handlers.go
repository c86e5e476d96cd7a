package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"netauth/internal/crypto"
	"netauth/internal/domain"
	"netauth/internal/protocol/handshake"
	"netauth/internal/protocol/wire"
	"netauth/internal/services/session"
	"netauth/internal/telemetry"
)

func (s *Server) handleHandshake(ctx context.Context, c *conn, env domain.Envelope) {
	log := s.connLog(c, env)
	if st := c.session.State(); st != session.New {
		s.refuse(c, log, session.ErrOutOfOrder)
		return
	}
	req, err := wire.Decode[domain.HandshakeRequest](env)
	if err != nil {
		err = errors.Join(crypto.ErrKeyExchange, err)
	}
	var (
		resp   domain.HandshakeResponse
		secret domain.SharedSecret
	)
	if err == nil {
		resp, secret, err = handshake.Respond(req)
	}
	if err != nil {
		s.metrics.Handshake(telemetry.ResultError)
		log.Warn().Err(err).Msg("key exchange failed")
		s.disconnect(c, "key exchange failed")
		return
	}
	defer crypto.WipeSecret(&secret)

	if err := c.session.CompleteHandshake(secret); err != nil {
		s.refuse(c, log, err)
		return
	}
	s.metrics.Handshake(telemetry.ResultSuccess)
	log.Debug().Str("state", session.HandshakeComplete.String()).Msg("handshake complete")
	s.send(ctx, c, log, resp)
}

func (s *Server) handleRegister(ctx context.Context, c *conn, env domain.Envelope) {
	log := s.connLog(c, env)
	req, err := wire.Decode[domain.RegisterRequest](env)
	if err != nil {
		s.malformed(ctx, c, log, err, domain.RegisterResponse{})
		return
	}
	creds, ok := s.openCredentials(ctx, c, log, req.Sequence, handshake.FromRegister(req), domain.RegisterResponse{})
	if !ok {
		return
	}
	defer crypto.Wipe(creds.Password)
	creds.Email = req.Email

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	registered, err := s.accounts.Register(rctx, creds)
	cancel()
	switch {
	case err != nil:
		s.metrics.Registration(telemetry.ResultError)
		log.Error().Err(err).Msg("registration failed")
		registered = false
	case registered:
		s.metrics.Registration(telemetry.ResultSuccess)
	default:
		s.metrics.Registration(telemetry.ResultRejected)
	}
	log.Info().Bool("result", registered).Msg("registration")
	s.send(ctx, c, log, domain.RegisterResponse{Registered: registered})

	if registered {
		s.authenticate(ctx, c, log, creds)
	}
}

func (s *Server) handleAuth(ctx context.Context, c *conn, env domain.Envelope) {
	log := s.connLog(c, env)
	req, err := wire.Decode[domain.AuthRequest](env)
	if err != nil {
		s.malformed(ctx, c, log, err, domain.AuthResponse{})
		return
	}
	creds, ok := s.openCredentials(ctx, c, log, req.Sequence, handshake.FromAuth(req), domain.AuthResponse{})
	if !ok {
		return
	}
	defer crypto.Wipe(creds.Password)
	s.authenticate(ctx, c, log, creds)
}

// authenticate verifies creds, marks the session and sends the AuthResponse.
func (s *Server) authenticate(ctx context.Context, c *conn, log zerolog.Logger, creds domain.Credentials) {
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	ok, err := s.accounts.Authenticate(rctx, creds)
	cancel()
	switch {
	case err != nil:
		s.metrics.Authentication(telemetry.ResultError)
		log.Error().Err(err).Msg("authentication failed")
		ok = false
	case ok:
		if err := c.session.MarkAuthenticated(); err != nil {
			log.Warn().Err(err).Msg("session rejected authentication")
			ok = false
		}
	}
	if err == nil {
		if ok {
			s.metrics.Authentication(telemetry.ResultSuccess)
		} else {
			s.metrics.Authentication(telemetry.ResultRejected)
		}
	}
	log.Info().Bool("result", ok).Str("state", c.session.State().String()).Msg("authentication")
	s.send(ctx, c, log, domain.AuthResponse{Authenticated: ok})
}

// openCredentials admits the request in the session and decrypts it. It
// handles every failure itself and reports whether the caller may go on.
func (s *Server) openCredentials(
	ctx context.Context,
	c *conn,
	log zerolog.Logger,
	seq uint64,
	sealed handshake.Sealed,
	negative domain.Message,
) (domain.Credentials, bool) {
	secret, err := c.session.BeginCredentialRequest(seq)
	if err != nil {
		s.refuse(c, log, err)
		return domain.Credentials{}, false
	}
	defer crypto.WipeSecret(&secret)

	username, password, err := handshake.Open(secret, seq, sealed)
	if err != nil {
		s.metrics.Violation("decrypt")
		log.Warn().Err(err).Msg("credentials did not decrypt")
		s.send(ctx, c, log, negative)
		return domain.Credentials{}, false
	}
	if err := c.session.CommitSequence(seq); err != nil {
		crypto.Wipe(username)
		crypto.Wipe(password)
		s.refuse(c, log, err)
		return domain.Credentials{}, false
	}
	return domain.Credentials{Username: domain.Username(username), Password: password}, true
}

// malformed handles an undecodable credential request according to the
// session state: after the handshake it earns a negative answer.
func (s *Server) malformed(ctx context.Context, c *conn, log zerolog.Logger, err error, negative domain.Message) {
	switch c.session.State() {
	case session.New:
		s.refuse(c, log, session.ErrOutOfOrder)
	case session.Authenticated:
		s.refuse(c, log, session.ErrDuplicateAuthentication)
	case session.HandshakeComplete:
		s.metrics.Violation("malformed")
		log.Warn().Err(err).Msg("malformed request")
		s.send(ctx, c, log, negative)
	}
}

// refuse applies the state machine's verdict on a rejected message.
func (s *Server) refuse(c *conn, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrDuplicateAuthentication):
		s.metrics.Violation("duplicate_authentication")
		log.Warn().Msg("request on authenticated connection, disconnecting")
		s.disconnect(c, "already authenticated")
	case errors.Is(err, session.ErrReplay):
		s.metrics.Violation("replay")
		log.Warn().Msg("replayed request ignored")
	case errors.Is(err, session.ErrOutOfOrder):
		s.metrics.Violation("out_of_order")
		log.Warn().Str("state", c.session.State().String()).Msg("message out of order ignored")
	default:
		log.Debug().Err(err).Msg("message for closed session ignored")
	}
}

func (s *Server) send(ctx context.Context, c *conn, log zerolog.Logger, msg domain.Message) {
	env, err := wire.Encode(msg)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		return
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.transport.Send(sctx, c.id, env); err != nil {
		log.Warn().Err(err).Str("response", string(env.Type)).Msg("send failed")
	}
}

func (s *Server) connLog(c *conn, env domain.Envelope) zerolog.Logger {
	return s.log.With().Str("conn", c.id.String()).Str("type", string(env.Type)).Logger()
}

package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownGrace = 5 * time.Second

// Run starts the protocol server and serves HTTP until ctx is done.
func (w *ServerWire) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.Config.ListenAddr)
	if err != nil {
		return err
	}
	return w.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (w *ServerWire) Serve(ctx context.Context, ln net.Listener) error {
	if err := w.Server.Start(ctx); err != nil {
		_ = ln.Close()
		return err
	}
	defer w.Server.Stop()

	errc := make(chan error, 1)
	go func() { errc <- w.HTTP.Serve(ln) }()
	w.Log.Info().
		Str("addr", ln.Addr().String()).
		Str("store", w.Config.StoreDriver).
		Str("hash", w.Config.HashAlgorithm).
		Msg("listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	w.Transport.Shutdown()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := w.HTTP.Shutdown(sctx); err != nil {
		return err
	}
	w.Log.Info().Msg("shut down")
	return nil
}

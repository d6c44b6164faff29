package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kolah/respec/middleware"
)

func ProxyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Reverse proxy an API and report undocumented responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			upstream, _ := cmd.Flags().GetString("upstream")
			listen, _ := cmd.Flags().GetString("listen")
			target, err := url.Parse(upstream)
			if err != nil || target.Scheme == "" || target.Host == "" {
				return fmt.Errorf("invalid upstream URL %q", upstream)
			}

			mw, err := middleware.New(s.loader.Indexer(), &middleware.Options{
				ValidationExemptURLs: s.cfg.ValidationExemptURLs,
				Logger:               s.logger,
			})
			if err != nil {
				return err
			}

			// Fail before accepting traffic if the schema is unusable.
			if _, err := s.loader.Schema(cmd.Context()); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              listen,
				Handler:           mw.Handler(httputil.NewSingleHostReverseProxy(target)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				s.logger.Info("proxy listening", "addr", listen, "upstream", target.String())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().String("upstream", "", "URL of the API to proxy")
	cmd.Flags().String("listen", "127.0.0.1:8080", "Address to listen on")
	_ = cmd.MarkFlagRequired("upstream")

	return cmd
}

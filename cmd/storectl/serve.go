package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lotusshop/go-storefront-session/guard"
	"github.com/lotusshop/go-storefront-session/transport"
)

// newServeCommand runs a small local server demonstrating the whole session
// stack: a guard-protected account page, and a proxy that forwards to the
// backend through the authenticated transport so expired tokens refresh and
// retry invisibly.
func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo server with guarded routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			return runServer(a, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":7070", "listen address")
	return cmd
}

func runServer(a *app, addr string) error {
	displayAppname(a.cfg.GetAppName())

	if err := a.controller.Start(context.Background()); err != nil {
		return err
	}
	defer a.controller.Close()

	apiClient := transport.NewHTTPClient(a.store, a.coordinator,
		transport.WithLogger(log.Logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc(a.loginPath(), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Sign in with `storectl login` and reload.")
	})
	mux.Handle("/account", guard.Protect(a.controller, a.loginPath(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := guard.ClaimsFromContext(r)
		if claims == nil {
			fmt.Fprintln(w, "Signed in (claims unavailable)")
			return
		}
		fmt.Fprintf(w, "Signed in as %s <%s>\n", claims.Name, claims.Email)
	})))
	mux.Handle("/proxy/", guard.Protect(a.controller, a.loginPath(), proxyHandler(a.baseURL(), apiClient)))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info().Str("addr", addr).Msg("demo server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	waitForStopSignal()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// proxyHandler forwards GET requests to the backend through the
// authenticated client. The refresh-and-retry cycle happens inside the
// transport; this handler only sees the final outcome.
func proxyHandler(baseURL string, client *http.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/proxy")
		request, err := http.NewRequestWithContext(r.Context(), http.MethodGet, baseURL+path, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		response, err := client.Do(request)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		defer response.Body.Close()
		w.Header().Set("Content-Type", response.Header.Get("Content-Type"))
		w.WriteHeader(response.StatusCode)
		_, _ = io.Copy(w, response.Body)
	})
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/server"
	"github.com/desertthunder/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConnectSpotify runs the PKCE authorization flow for a user.
//
// Starts a local HTTP server, opens the browser for authorization, and
// stores the exchanged tokens against the user's account.
func (r *Runner) ConnectSpotify(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	manager, err := r.tokenManager()
	if err != nil {
		return err
	}

	authURL, err := manager.BeginAuthorization(user.ID())
	if err != nil {
		return fmt.Errorf("failed to begin authorization: %w", err)
	}

	handler := server.NewCallbackHandler(manager)
	router := server.NewBasicRouter()
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-handler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("authorization timed out after 2 minutes")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Record == nil {
		return fmt.Errorf("no credential received")
	}

	r.writePlainln("✓ Spotify connected for %s", user.Handle())
	r.writePlain("You can now use: chorus post create --author %s ...\n", user.Username())

	return nil
}

// ConnectStatus shows a user's provider connection state.
func (r *Runner) ConnectStatus(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	record, err := repositories.NewTokenRepository(db).Get(user.ID(), models.ProviderSpotify)
	if err != nil {
		if errors.Is(err, shared.ErrNoConnection) {
			r.writePlain("%s: Disconnected\n", user.Handle())
			return nil
		}
		return err
	}

	if record.Expired(time.Now()) {
		r.writePlain("%s: Connected (expired, will refresh on next use)\n", user.Handle())
	} else {
		r.writePlain("%s: Connected (expires %s)\n", user.Handle(),
			time.Unix(record.Expiry, 0).Format(time.RFC3339))
	}
	return nil
}

// ConnectRemove disconnects a provider.
func (r *Runner) ConnectRemove(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	manager, err := r.tokenManager()
	if err != nil {
		return err
	}

	if err := manager.Disconnect(user.ID()); err != nil {
		return err
	}

	r.writePlain("✓ Disconnected Spotify for %s\n", user.Handle())
	return nil
}

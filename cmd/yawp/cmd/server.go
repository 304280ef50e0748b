package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jdwb/yawp/api"
	"github.com/jdwb/yawp/internal/config"
	"github.com/jdwb/yawp/internal/util"
	"github.com/jdwb/yawp/passkey"
	"github.com/jdwb/yawp/session"
	bboltstorage "github.com/jdwb/yawp/storage/bbolt"
	"github.com/jdwb/yawp/web"
)

// singleUserID is the fixed user handle presented to the client
// platform. There is only ever one user, so nothing meaningful can be
// encoded here.
const singleUserID = "00000000-0000-0000-0000-000000000000"

var (
	port       int
	dataDir    string
	baseURL    string
	sessionKey string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the publishing server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = dataDir
		}
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL = baseURL
		}
		if cmd.Flags().Changed("session-key") {
			cfg.SessionKey = sessionKey
		}

		origin, err := cfg.Origin()
		if err != nil {
			return err
		}
		rpID, err := cfg.RPID()
		if err != nil {
			return err
		}
		masterKey, err := cfg.SessionKeyBytes()
		if err != nil {
			return err
		}
		defer util.WipeBytes(masterKey)

		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := bboltstorage.Open(filepath.Join(cfg.DataDir, "yawp.db"), nil)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer db.Close()

		credentials, err := bboltstorage.NewCredentialStore(db)
		if err != nil {
			return err
		}
		notes, err := bboltstorage.NewNoteStore(db)
		if err != nil {
			return err
		}

		codec, err := session.NewCodec(masterKey, cfg.SessionTTL)
		if err != nil {
			return err
		}
		defer codec.Close()

		issuer := passkey.NewIssuer(credentials, rpID, cfg.Author, []byte(singleUserID))
		verifier := passkey.NewVerifier(credentials, origin, rpID, cfg.CeremonyTTL)
		manager := session.NewManager(issuer, verifier)

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		a := api.New(manager, codec, notes,
			api.WithLogger(logger),
			api.WithSite(cfg.Title, cfg.Author, cfg.BaseURL),
		)

		apiRouter := a.Router()
		apiRouter.NotFound(web.Handler().ServeHTTP)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(api.SecurityHeaders)
		r.Mount("/", apiRouter)

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		logger.Info("server started", "port", cfg.Port, "base_url", cfg.BaseURL, "data_dir", cfg.DataDir)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serverCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:3000", "Public base URL; determines the WebAuthn origin and relying-party id")
	serverCmd.Flags().StringVar(&sessionKey, "session-key", "", "Hex-encoded 32-byte cookie sealing key")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"dashboard-sync/internal/client"
	"dashboard-sync/internal/config"
	"dashboard-sync/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	newAPIClientFunc  = client.New
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	api := newAPIClientFunc(cfg.DashboardServerURL)
	interval := time.Duration(cfg.UpdateIntervalMS) * time.Millisecond

	authorized := make(map[string]bool, len(cfg.SSHAuthorizedFingerprints))
	for _, fp := range cfg.SSHAuthorizedFingerprints {
		authorized[fp] = true
	}
	if len(authorized) == 0 {
		log.Println("Warning: SSH_AUTHORIZED_FINGERPRINTS not set, every key will be rejected")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			return keyAuthorized(authorized, ctx.User(), key)
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(api, interval, s.User())
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH dashboard listening on %s (prices from %s)", addr, cfg.DashboardServerURL)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}

func keyAuthorized(authorized map[string]bool, user string, key ssh.PublicKey) bool {
	fingerprint := gossh.FingerprintSHA256(key)
	if !authorized[fingerprint] {
		log.Printf("SSH auth denied: user=%s fingerprint=%s", user, fingerprint)
		return false
	}
	log.Printf("SSH auth accepted: user=%s fingerprint=%s", user, fingerprint)
	return true
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hostel-ts/internal/models"
	"hostel-ts/internal/session"
	"hostel-ts/pkg/client"
	"hostel-ts/pkg/logger"
)

var (
	errNotSignedIn    = errors.New("not signed in, run `hostelctl login` first")
	errSessionLoading = errors.New("session is still loading, try again")
)

// settings are resolved from flags, HOSTEL_* variables and an optional config file.
type settings struct {
	APIURL       string
	TokenFile    string
	PollInterval time.Duration
	PollAttempts int
	Debug        bool
}

func loadSettings(v *viper.Viper) settings {
	s := settings{
		APIURL:       strings.TrimRight(v.GetString("api_url"), "/"),
		TokenFile:    v.GetString("token_file"),
		PollInterval: v.GetDuration("poll_interval"),
		PollAttempts: v.GetInt("poll_attempts"),
		Debug:        v.GetBool("debug"),
	}
	if s.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		s.TokenFile = filepath.Join(dir, "hostelctl", "session.json")
	}
	return s
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("HOSTEL")
	v.AutomaticEnv()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("poll_interval", session.DefaultPollInterval)
	v.SetDefault("poll_attempts", session.DefaultMaxAttempts)

	v.SetConfigName("hostelctl")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "hostelctl"))
	}
	v.AddConfigPath(".")
	return v
}

// app is filled in by PersistentPreRunE and shared by the subcommands of one root.
type app struct {
	cfg    settings
	log    zerolog.Logger
	client *client.Client
	auth   *client.Auth
}

func newRootCmd() *cobra.Command {
	v := newViper()
	a := &app{}

	root := &cobra.Command{
		Use:           "hostelctl",
		Short:         "Report and manage hostel issues from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return fmt.Errorf("failed to read config: %w", err)
				}
			}
			cfg := loadSettings(v)
			log := logger.Console(os.Stderr, cfg.Debug)
			c := client.New(cfg.APIURL, nil)
			*a = app{
				cfg:    cfg,
				log:    log,
				client: c,
				auth:   client.NewAuth(c, client.NewTokenStore(cfg.TokenFile), log),
			}
			return nil
		},
	}

	root.PersistentFlags().String("api-url", "", "API base URL (HOSTEL_API_URL)")
	root.PersistentFlags().String("token-file", "", "where the session token is kept (HOSTEL_TOKEN_FILE)")
	root.PersistentFlags().Bool("debug", false, "verbose logging")
	_ = v.BindPFlag("api_url", root.PersistentFlags().Lookup("api-url"))
	_ = v.BindPFlag("token_file", root.PersistentFlags().Lookup("token-file"))
	_ = v.BindPFlag("debug", root.PersistentFlags().Lookup("debug"))

	root.AddCommand(newLoginCmd(a), newLogoutCmd(a), newWhoamiCmd(a))
	root.AddCommand(newIssuesCmd(a), newAnnouncementsCmd(a), newLostFoundCmd(a), newOverviewCmd(a))
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// gate resolves the stored session and applies the role guard. With no roles
// any signed-in user passes.
func (a *app) gate(ctx context.Context, roles ...models.Role) (session.Snapshot, error) {
	r := session.NewResolver(a.auth, a.client, a.auth.HasStoredToken,
		session.Config{PollInterval: a.cfg.PollInterval, MaxAttempts: a.cfg.PollAttempts}, a.log)
	r.Start(ctx)
	a.auth.Restore(ctx)
	defer func() {
		r.Close()
		a.auth.Wait()
	}()

	// generous bound: polling alone gives up after interval * attempts
	budget := a.cfg.PollInterval*time.Duration(a.cfg.PollAttempts) + 15*time.Second
	wctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	snap, err := r.Wait(wctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("session wait interrupted")
	}
	a.log.Debug().Stringer("state", snap.State).Str("role", string(snap.Role())).Msg("session resolved")
	return snap, decisionError(session.Authorize(snap, roles...), roles)
}

func decisionError(d session.Decision, roles []models.Role) error {
	switch d {
	case session.Allow:
		return nil
	case session.RedirectLogin:
		return errNotSignedIn
	case session.RedirectHome:
		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		return fmt.Errorf("this command requires the %s role", strings.Join(names, " or "))
	default:
		return errSessionLoading
	}
}

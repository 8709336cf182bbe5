package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/folio/internal/cms"
	"github.com/conneroisu/folio/internal/config"
	"github.com/conneroisu/folio/internal/logging"
	"github.com/conneroisu/folio/internal/server"
	"github.com/conneroisu/folio/internal/validation"
	"github.com/conneroisu/folio/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the site server",
	Long: `Start the site server. Posts come from the CMS when --cms-url (or
cms.url) is set and from the content directory otherwise. In development
the content directory is watched and open pages reload on change.

Examples:
  folio serve                                 # Serve ./content
  folio serve --content posts -p 3000         # Serve ./posts on port 3000
  folio serve --cms-url https://cms.example.com`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().String("content", "./content", "Directory of post JSON files")
	serveCmd.Flags().String("cms-url", "", "Base URL of the CMS")
	serveCmd.Flags().Bool("drafts", false, "Serve draft posts from the content directory")
	serveCmd.Flags().Bool("open", false, "Open the site in a browser")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("content.dir", serveCmd.Flags().Lookup("content"))
	_ = viper.BindPFlag("content.drafts", serveCmd.Flags().Lookup("drafts"))
	_ = viper.BindPFlag("cms.url", serveCmd.Flags().Lookup("cms-url"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, dir, err := newSource(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, source, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if dir != nil && cfg.Development.HotReload {
		fw, err := watchContent(ctx, dir, srv, logger)
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, err, "Error during server shutdown")
		}
	}()

	url := "http://" + srv.Addr()
	fmt.Fprintf(cmd.OutOrStdout(), "Starting folio at %s\n", url)
	if open, _ := cmd.Flags().GetBool("open"); open {
		go openBrowser(url, logger)
	}

	return srv.Start(ctx)
}

// newSource returns the CMS client or, without a CMS URL, the content
// directory source. dir is non-nil only in the second case.
func newSource(cfg *config.Config, logger logging.Logger) (cms.Source, *cms.DirSource, error) {
	if cfg.UsesCMS() {
		client, err := cms.NewClient(cms.ClientConfig{
			BaseURL:    cfg.CMS.URL,
			Timeout:    cfg.CMS.Timeout,
			Revalidate: cfg.CMS.Revalidate,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create cms client: %w", err)
		}
		return client, nil, nil
	}

	dir, err := cms.NewDirSource(cfg.Content.Dir, cfg.Content.Drafts, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load content: %w", err)
	}
	return dir, dir, nil
}

// watchContent reloads dir and refreshes connected browsers whenever a
// post file changes.
func watchContent(ctx context.Context, dir *cms.DirSource, srv *server.Server, logger logging.Logger) (*watcher.FileWatcher, error) {
	fw, err := watcher.NewFileWatcher(watcher.DefaultDebounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.AddFilter(watcher.JSONFilter)
	fw.AddFilter(watcher.NoTempFilter)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		if err := dir.Reload(); err != nil {
			return err
		}
		logger.Info(ctx, "Content reloaded", "changes", len(events))
		srv.Reload()
		return nil
	})

	if err := fw.AddRecursive(dir.Dir()); err != nil {
		_ = fw.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", dir.Dir(), err)
	}
	fw.Start(ctx)
	return fw, nil
}

func openBrowser(url string, logger logging.Logger) {
	time.Sleep(100 * time.Millisecond)

	ctx := context.Background()
	if err := validation.ValidateURL(url); err != nil {
		logger.Warn(ctx, err, "Refusing to open browser")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	if err != nil {
		logger.Warn(ctx, err, "Failed to open browser")
	}
}

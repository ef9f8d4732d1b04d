// Package cli implements the signedplay command line.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"

	"github.com/NamanBalaji/signedplay/internal/asset"
	"github.com/NamanBalaji/signedplay/internal/auth"
	"github.com/NamanBalaji/signedplay/internal/config"
	"github.com/NamanBalaji/signedplay/internal/errors"
	"github.com/NamanBalaji/signedplay/internal/filesystem"
	"github.com/NamanBalaji/signedplay/internal/loader"
	"github.com/NamanBalaji/signedplay/internal/logger"
	"github.com/NamanBalaji/signedplay/internal/playback"
	"github.com/NamanBalaji/signedplay/internal/progress"
	"github.com/NamanBalaji/signedplay/internal/repository"
	httpPkg "github.com/NamanBalaji/signedplay/pkg/http"
)

const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitCertificate = 3
	ExitFetch       = 4
)

const usage = `Usage: signedplay [-debug] <command> [arguments]

Commands:
  probe <url>              print the resource's type, size and range support
  fetch [-o file] <url>    download the resource through range requests
  history [-n count]       list recent range requests from the journal
  help                     show this message

Configuration is read from %s.
`

// App runs one command. Fs is used for certificates and output files.
type App struct {
	Fs     afero.Fs
	Stdout io.Writer
	Stderr io.Writer
}

func New(stdout, stderr io.Writer) *App {
	return &App{Fs: afero.NewOsFs(), Stdout: stdout, Stderr: stderr}
}

// Run parses args and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	global := flag.NewFlagSet("signedplay", flag.ContinueOnError)
	global.SetOutput(a.Stderr)
	global.Usage = a.printUsage
	debug := global.Bool("debug", false, "Enable debug logging")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		a.printUsage()
		return ExitUsage
	}

	cmd, cmdArgs := rest[0], rest[1:]
	if cmd == "help" {
		fmt.Fprintf(a.Stdout, usage, config.Path())
		return ExitOK
	}

	run, ok := map[string]func(context.Context, *config.Config, []string) int{
		"probe":   a.probe,
		"fetch":   a.fetch,
		"history": a.history,
	}[cmd]
	if !ok {
		fmt.Fprintf(a.Stderr, "unknown command %q\n", cmd)
		a.printUsage()
		return ExitUsage
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error reading config: %v\n", err)
		return ExitError
	}

	logOpts := logger.Options{MaxSizeMB: cfg.Log.MaxSizeMB, MaxBackups: cfg.Log.MaxBackups}
	if err := logger.InitLogging(*debug || cfg.Log.Debug, cfg.Log.File, logOpts); err != nil {
		fmt.Fprintf(a.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	return run(ctx, cfg, cmdArgs)
}

func (a *App) printUsage() {
	fmt.Fprintf(a.Stderr, usage, config.Path())
}

func (a *App) probe(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Fprintln(a.Stderr, "Usage: signedplay probe <url>")
		return ExitUsage
	}

	sess, code := a.openSession(cfg, fs.Arg(0))
	if sess == nil {
		return code
	}
	defer sess.close()

	meta, err := sess.player.Probe(ctx)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Probe failed: %v\n", err)
		return ExitFetch
	}

	length := "unknown"
	if meta.HasContentLength() {
		length = fmt.Sprintf("%d", meta.ContentLength)
	}

	fmt.Fprintf(a.Stdout, "Content-Type:   %s\n", meta.ContentType)
	fmt.Fprintf(a.Stdout, "Content-Length: %s\n", length)
	fmt.Fprintf(a.Stdout, "Byte ranges:    %t\n", meta.ByteRangeAccessSupported)

	return ExitOK
}

func (a *App) fetch(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	output := fs.String("o", "", "Write to file instead of stdout")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Fprintln(a.Stderr, "Usage: signedplay fetch [-o file] <url>")
		return ExitUsage
	}

	sess, code := a.openSession(cfg, fs.Arg(0))
	if sess == nil {
		return code
	}
	defer sess.close()

	files := filesystem.New(a.Fs)

	var w io.Writer = a.Stdout
	if *output != "" {
		f, err := files.CreateFile(*output)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error creating %s: %v\n", *output, err)
			return ExitError
		}
		defer f.Close()
		w = f
	}

	tracker := progress.NewWriter(w, loader.UnknownLength)
	start := time.Now()

	n, err := sess.player.Fetch(ctx, tracker)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Fetch failed after %d bytes: %v\n", n, err)
		if *output != "" {
			if err := files.DeleteFile(*output); err != nil {
				logger.Warnf("Error removing partial file %s: %v", *output, err)
			}
		}
		return ExitFetch
	}

	logger.Infof("Fetched %d bytes from %s in %s", n, sess.asset, time.Since(start))
	if *output != "" {
		fmt.Fprintf(a.Stderr, "Wrote %s to %s\n", progress.Summary(tracker), *output)
	}

	return ExitOK
}

func (a *App) history(_ context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	limit := fs.Int("n", 20, "Number of records to show")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		fmt.Fprintln(a.Stderr, "Usage: signedplay history [-n count]")
		return ExitUsage
	}

	repo, err := a.openRepository(cfg)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error opening journal: %v\n", err)
		return ExitError
	}
	defer repo.Close()

	records, err := repo.FindAll()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error reading journal: %v\n", err)
		return ExitError
	}

	if *limit > 0 && len(records) > *limit {
		records = records[len(records)-*limit:]
	}

	tw := tabwriter.NewWriter(a.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tKIND\tOUTCOME\tRANGE\tBYTES\tDURATION\tURL")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\t%d\t%s\t%s\n",
			rec.StartedAt.Format(time.RFC3339), rec.Kind, rec.Outcome, rec.Lower, rec.Upper,
			rec.Bytes, rec.Duration().Round(time.Millisecond), rec.URL)
	}

	if err := tw.Flush(); err != nil {
		return ExitError
	}

	return ExitOK
}

func (a *App) openRepository(cfg *config.Config) (*repository.BboltRepository, error) {
	if err := filesystem.New(a.Fs).EnsureDirectory(filepath.Dir(cfg.Journal.Path)); err != nil {
		return nil, err
	}

	return repository.NewBboltRepository(cfg.Journal.Path)
}

// session is everything one probe or fetch needs.
type session struct {
	asset       *asset.Asset
	coordinator *loader.Coordinator
	player      *playback.Player
	journal     *repository.Journal
	repo        *repository.BboltRepository
}

func (s *session) close() {
	s.coordinator.Close()
	s.closeStores()
}

func (a *App) openSession(cfg *config.Config, rawURL string) (*session, int) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(a.Stderr, "Certificate error: %v (set certificate.file in %s)\n", err, config.Path())
		return nil, ExitCertificate
	}

	authenticator, err := a.loadAuthenticator(cfg.Certificate)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Certificate error: %v\n", err)
		return nil, ExitCertificate
	}

	sess := &session{}

	opts := []loader.Option{
		loader.WithDefaultScheme(cfg.Http.DefaultScheme),
		loader.WithReadBufferSize(cfg.Http.ReadBufferSize),
		loader.WithSniffLimit(cfg.Playback.SniffLimit),
		loader.WithClientOptions(
			httpPkg.WithUserAgent(cfg.Http.UserAgent),
			httpPkg.WithConnectTimeout(cfg.Http.ConnectTimeout),
			httpPkg.WithTLSHandshakeTimeout(cfg.Http.TLSHandshakeTimeout),
			httpPkg.WithIdleTimeout(cfg.Http.IdleTimeout),
		),
	}

	if repo, err := a.openRepository(cfg); err != nil {
		logger.Warnf("Journal disabled: %v", err)
	} else {
		sess.repo = repo
		sess.journal = repository.NewJournal(repo, cfg.Journal.Buffer)
		opts = append(opts, loader.WithRecorder(sess.journal))
	}

	sess.coordinator, err = loader.NewCoordinator(authenticator, opts...)
	if err != nil {
		sess.closeStores()
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return nil, ExitError
	}

	sess.asset, err = asset.New(rawURL, sess.coordinator)
	if err != nil {
		sess.close()
		fmt.Fprintf(a.Stderr, "Invalid URL: %v\n", err)
		return nil, ExitUsage
	}

	sess.player = playback.NewPlayer(sess.asset, cfg.Playback.ChunkSize)

	return sess, ExitOK
}

func (s *session) closeStores() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			logger.Warnf("Journal write failed: %v", err)
		}
	}

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			logger.Warnf("Error closing journal: %v", err)
		}
	}
}

func (a *App) loadAuthenticator(c *config.CertificateConfig) (*auth.CertificateAuthenticator, error) {
	cert, err := auth.LoadCertificateFile(a.Fs, auth.CertificateFile{
		Path:     c.File,
		KeyPath:  c.KeyFile,
		Password: c.Password,
	})
	if err != nil {
		return nil, err
	}

	roots, err := auth.LoadRootCAs(a.Fs, c.CAFile)
	if err != nil {
		return nil, err
	}

	return auth.NewCertificateAuthenticator(cert, roots)
}

// Command pagebridge generates offline workers, fingerprints assets and
// hosts page sessions.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pagebridge/internal/errors"
)

// Set with -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagebridge",
		Short: "Offline worker and session host tooling for pagebridge pages",
		Long: `pagebridge prepares a page for offline use and hosts the WebSocket
endpoint its runtime connects to.

Typical flow: "pagebridge fingerprint web" writes the asset manifest,
"pagebridge worker" renders app-worker.js for that manifest, and
"pagebridge serve" runs the host with the configured cache storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		workerCmd(),
		precacheCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

// report prints err, with the full coded layout for a BridgeError.
func report(w io.Writer, err error) {
	var be *errors.BridgeError
	if stderrors.As(err, &be) {
		fmt.Fprint(w, be.Format())
		return
	}
	fmt.Fprintf(w, "\033[31mError:\033[0m %s\n", err)
}

// newLogger returns a text logger on stderr at the named level.
func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, errors.New("E140").WithDetailf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func status(w io.Writer, mark, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

func success(format string, args ...any) {
	status(os.Stdout, "\033[32m✓\033[0m", format, args...)
}

func info(format string, args ...any) { status(os.Stdout, " ", format, args...) }

func errorMsg(format string, args ...any) {
	status(os.Stderr, "\033[31m✗\033[0m", format, args...)
}

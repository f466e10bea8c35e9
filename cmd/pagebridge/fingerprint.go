package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pagebridge/internal/errors"
	"github.com/vango-dev/pagebridge/internal/watch"
	"github.com/vango-dev/pagebridge/pkg/assets"
	"github.com/vango-dev/pagebridge/pkg/offline"
)

func fingerprintCmd() *cobra.Command {
	var (
		manifestPath string
		emit         string
		watching     bool
	)

	cmd := &cobra.Command{
		Use:   "fingerprint <dir>",
		Short: "Hash static assets into a manifest",
		Long: `Scan a directory of static assets, write a manifest mapping each file
to its content-hashed name, and print the build fingerprint.

Examples:
  pagebridge fingerprint web
  pagebridge fingerprint web --manifest dist/manifest.json --emit dist/web`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := runFingerprint(cmd.OutOrStdout(), dir, manifestPath, emit); err != nil || !watching {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			w := watch.New(watch.Config{
				Paths:  []string{dir},
				Ignore: append(slices.Clone(watch.DefaultIgnore), filepath.Base(manifestPath)),
			})
			info("watching %s", dir)
			err := w.Run(ctx, func(changed []string) {
				if err := runFingerprint(cmd.OutOrStdout(), dir, manifestPath, emit); err != nil {
					errorMsg("%v", err)
				}
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "manifest.json", "Manifest output path")
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "Rebuild the manifest when assets change")
	cmd.Flags().StringVar(&emit, "emit", "", "Copy assets under their hashed names into this directory")
	return cmd
}

func runFingerprint(out io.Writer, dir, manifestPath, emit string) error {
	m, err := assets.Scan(os.DirFS(dir), ".")
	if err != nil {
		return errors.New("E140").WithDetailf("could not scan %s", dir).Wrap(err)
	}
	if err := m.Save(manifestPath); err != nil {
		return errors.New("E140").Wrap(err)
	}

	if emit != "" {
		for _, src := range m.Sources() {
			if err := copyFile(filepath.Join(dir, src), filepath.Join(emit, m.Resolve(src))); err != nil {
				return errors.New("E140").WithDetailf("could not emit %s", src).Wrap(err)
			}
		}
	}

	fp, err := offline.Fingerprint(bytes.NewReader(m.Bytes()))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, fp)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

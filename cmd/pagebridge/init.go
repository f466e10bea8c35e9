package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/pagebridge/internal/config"
	"github.com/vango-dev/pagebridge/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		name     string
		manifest string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create pagebridge.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) && !force {
				return errors.New("E140").
					WithDetailf("%s already exists in %s", config.ConfigFileName, dir).
					WithSuggestion("Pass --force to overwrite it")
			}

			cfg := config.New()
			cfg.Name = name
			if cfg.Name == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				cfg.Name = filepath.Base(abs)
			}
			cfg.Worker.Manifest = manifest
			cfg.Worker.Assets = []string{"/"}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New("E140").Wrap(err)
			}
			path := filepath.Join(dir, config.ConfigFileName)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Created %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (default: directory name)")
	cmd.Flags().StringVar(&manifest, "manifest", "dist/manifest.json", "Asset manifest path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

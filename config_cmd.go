package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# backend base URL
server: "http://localhost:5011"
# ambience asset; defaults to {server}/assets/whitenoise.mp3
ambience_url: ""
# mouse support
mouse: false

# initial channel volumes (0.0 to 1.0)
volume:
  voice: 1.0
  ambience: 0.4

audio:
  # set to false to play silently
  enabled: true
  # in-memory segment audio cache, in MB (0 disables)
  cache_size: 64

http:
  # per-request timeout; generation can be slow
  timeout: "120s"
  # requests per second (0 for unlimited)
  rate: 4
`

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Edit the ashtra config file",
	Long:    paragraph(fmt.Sprintf("\n%s the ashtra config file with $EDITOR. A file with the default settings is written first when none exists.", keyword("Edit"))),
	Example: paragraph("ashtra config\nashtra config --config path/to/config.yml\nashtra config --defaults > ashtra.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if defaults, _ := cmd.Flags().GetBool("defaults"); defaults {
			_, err := fmt.Fprint(cmd.OutOrStdout(), defaultConfig)
			return err
		}

		path, err := resolveConfigFile(configFile)
		if err != nil {
			return err
		}
		configFile = path
		created, err := writeDefaultConfig(path)
		if err != nil {
			return err
		}
		if created {
			log.Info("created config file", "path", path)
		}

		c, err := editor.Cmd("Ashtra", path)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", path)
		return nil
	},
}

// resolveConfigFile picks the file to edit: the given path, or the one viper
// settled on, with ~ expanded. Only YAML is accepted.
func resolveConfigFile(path string) (string, error) {
	if path == "" {
		path = viper.ConfigFileUsed()
	}
	if path == "" {
		return "", errors.New("no config file location found")
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return path, nil
	default:
		return "", fmt.Errorf("'%s' is not a supported configuration type: use '.yaml' or '.yml'", ext)
	}
}

// writeDefaultConfig creates path with the default settings unless it already
// exists. It reports whether a file was written.
func writeDefaultConfig(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("unable to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("unable create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o600); err != nil {
		return false, fmt.Errorf("unable to write config file: %w", err)
	}
	return true, nil
}

func init() {
	configCmd.Flags().Bool("defaults", false, "print the default config and exit")
}

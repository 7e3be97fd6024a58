package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ashtra-audio/ashtra/internal/api"
	"github.com/ashtra-audio/ashtra/internal/audio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errUnhealthy = errors.New("one or more checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the backend and the audio device",
	Long: paragraph(fmt.Sprintf("\n%s that the backend answers and that audio can be played. "+
		"Use --no-audio to skip the device check.", keyword("Check"))),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		ok := true
		report := func(name string, err error, detail string) {
			if err != nil {
				ok = false
			}
			writeCheck(os.Stdout, name, err, detail)
		}

		fmt.Fprintln(os.Stdout, subtle("config: "+configPath()))

		h, err := client.Health(cmd.Context())
		report("backend", err, healthDetail(h, client.Server()))

		if err == nil {
			list, err := client.ListSessions(cmd.Context())
			report("history", err, fmt.Sprintf("%d sessions", len(list)))
		}

		skipAudio, _ := cmd.Flags().GetBool("no-audio")
		if !skipAudio && viper.GetBool("audio.enabled") {
			e, err := audio.NewEngine(audio.DefaultEngineConfig())
			detail := ""
			if err == nil {
				detail = fmt.Sprintf("%d Hz stereo", int(e.SampleRate()))
			}
			report("audio", err, detail)
		}

		if !ok {
			return errUnhealthy
		}
		return nil
	},
}

func healthDetail(h api.Health, server string) string {
	s := fmt.Sprintf("%s (%s)", server, h.Status)
	if h.SessionDir != "" {
		s += ", sessions in " + h.SessionDir
	}
	return s
}

func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return configFile
}

func writeCheck(w io.Writer, name string, err error, detail string) {
	if err != nil {
		fmt.Fprintf(w, "%s %-8s %v\n", failure("✗"), name, err)
		return
	}
	fmt.Fprintf(w, "%s %-8s %s\n", keyword("✓"), name, detail)
}

func init() {
	doctorCmd.Flags().Bool("no-audio", false, "skip the audio device check")
}

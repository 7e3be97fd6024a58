package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	style string
	width uint

	historyCmd = &cobra.Command{
		Use:     "history",
		Short:   "List generated sessions",
		Example: paragraph("ashtra history\nashtra history --server http://localhost:5011"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			list, err := client.ListSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to list sessions: %w", err)
			}
			return writeHistory(os.Stdout, list)
		},
	}

	showCmd = &cobra.Command{
		Use:     "show ID",
		Short:   "Print the transcript of a session",
		Example: paragraph("ashtra show conversation3\nashtra show conversation3 --style light"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			sess, err := client.GetSession(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("unable to load session: %w", err)
			}
			if sess.ID == "" {
				sess.ID = args[0]
			}
			return renderTranscript(cmd, os.Stdout, sess)
		},
	}
)

func writeHistory(w io.Writer, list []session.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, subtle("No sessions yet."))
		return err
	}
	idWidth := 0
	for _, s := range list {
		idWidth = max(idWidth, runewidth.StringWidth(s.ID))
	}
	for _, s := range list {
		id := runewidth.FillRight(s.ID, idWidth)
		title := s.Title
		if strings.TrimSpace(title) == "" {
			title = subtle("(untitled)")
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", keyword(id), title); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}

// transcriptMarkdown lays a session out as a markdown document.
func transcriptMarkdown(sess session.Session) string {
	var b strings.Builder
	title := session.Summary{ID: sess.ID, Title: sess.Title}.DisplayTitle()
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(sess.Segments) == 0 {
		b.WriteString("_No segments._\n")
		return b.String()
	}
	for _, seg := range sess.Segments {
		speaker := seg.SpeakerLabel
		if speaker == "" {
			speaker = "Unknown"
		}
		fmt.Fprintf(&b, "**%s**: %s\n\n", speaker, strings.TrimSpace(seg.Transcript))
	}
	return b.String()
}

func renderTranscript(cmd *cobra.Command, w io.Writer, sess session.Session) error {
	s := style
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		s = styles.NoTTYStyle
	}

	wrap := width
	if !cmd.Flags().Changed("width") {
		if isTerminal && wrap == 0 {
			cols, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				wrap = uint(cols) //nolint:gosec
			}
			if wrap > 120 {
				wrap = 120
			}
		}
		if wrap == 0 {
			wrap = 80
		}
	}

	styleOpt := glamour.WithStandardStyle(s)
	if s == styles.AutoStyle {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		styleOpt,
		glamour.WithWordWrap(int(wrap)), //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(transcriptMarkdown(sess))
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	if _, err := fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func init() {
	showCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name")
	showCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to disable)")
}

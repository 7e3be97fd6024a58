package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashtra-audio/ashtra/internal/attachment"
	"github.com/ashtra-audio/ashtra/internal/playback"
	"github.com/ashtra-audio/ashtra/internal/session"
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
)

// errGenerate is shown in a blocking dialog when a generation fails.
var errGenerate = errors.New("Failed to generate podcast. Ensure backend is running.") //nolint:stylecheck

type (
	sessionsMsg   session.ListResult
	sessionMsg    session.LoadResult
	generatedMsg  session.GenerateResult
	trackDoneMsg  struct{ track playback.Track }
	statusMsg     string
	statusTimeout struct{ seq int }

	attachedMsg struct {
		path    string
		att     *session.Attachment
		watcher *attachment.Watcher
		err     error
	}

	attachmentChangedMsg struct {
		watcher *attachment.Watcher
		att     *session.Attachment
		err     error
	}
)

// COMMANDS

func fetchSessionsCmd(store *session.Store, ticket uint64) tea.Cmd {
	return func() tea.Msg {
		return sessionsMsg(store.FetchSessions(context.Background(), ticket))
	}
}

func fetchSessionCmd(store *session.Store, id string) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(store.FetchSession(context.Background(), id))
	}
}

func generateCmd(store *session.Store, req session.Request) tea.Cmd {
	return func() tea.Msg {
		return generatedMsg(store.FetchGeneration(context.Background(), req))
	}
}

// waitTrackCmd reports when t stops for any reason.
func waitTrackCmd(t playback.Track) tea.Cmd {
	return func() tea.Msg {
		<-t.Done()
		return trackDoneMsg{track: t}
	}
}

// attachCmd loads path and starts watching it for changes.
func attachCmd(path string) tea.Cmd {
	return func() tea.Msg {
		att, err := attachment.Load(path)
		if err != nil {
			return attachedMsg{path: path, err: err}
		}
		w, err := attachment.Watch(att.Path, log.WithPrefix("attachment"))
		if err != nil {
			// Attaching still works without live reload.
			log.Warn("unable to watch attachment", "path", att.Path, "error", err)
		}
		return attachedMsg{path: path, att: att, watcher: w}
	}
}

// watchAttachmentCmd waits for the next change of the watched file and
// re-encodes it. The command ends quietly once the watcher is closed.
func watchAttachmentCmd(w *attachment.Watcher) tea.Cmd {
	return func() tea.Msg {
		if !w.Next(context.Background()) {
			return nil
		}
		att, err := attachment.Load(w.Path())
		return attachmentChangedMsg{watcher: w, att: att, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		if err := clipboard.WriteAll(text); err != nil {
			log.Debug("native clipboard unavailable", "error", err)
		}
		return statusMsg("Copied transcript")
	}
}

func statusTimeoutCmd(seq int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusTimeout{seq: seq}
	})
}

func attachedNote(a *session.Attachment) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s, %s)", a.Name, a.MIME, humanize.IBytes(uint64(a.Size))) //nolint:gosec
}

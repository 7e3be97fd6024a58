package devserver

import (
	"context"
	"fmt"
	"strings"
)

// Message is one entry of the chat history kept by the server.
type Message struct {
	Role    string // system, user or assistant
	Content string
}

// Scripter writes the next part of a podcast script for the conversation so
// far. The reply is expected to contain <voiceN> tags.
type Scripter interface {
	Script(ctx context.Context, history []Message) (string, error)
}

// ScripterFunc adapts a function to Scripter.
type ScripterFunc func(ctx context.Context, history []Message) (string, error)

// Script calls f.
func (f ScripterFunc) Script(ctx context.Context, history []Message) (string, error) {
	return f(ctx, history)
}

// EchoScripter produces a short two-voice exchange about the latest user
// message. It is deterministic so sessions are reproducible.
type EchoScripter struct{}

// Script implements Scripter.
func (EchoScripter) Script(_ context.Context, history []Message) (string, error) {
	var topic string
	turn := 0
	for _, m := range history {
		if m.Role == "user" {
			topic = m.Content
			turn++
		}
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("no user message in history")
	}
	if i := strings.IndexByte(topic, '\n'); i >= 0 {
		topic = topic[:i]
	}

	var b strings.Builder
	b.WriteString("<podcast>\n")
	if turn == 1 {
		fmt.Fprintf(&b, "<voice1>Welcome to the show! Today we're talking about %s.</voice1>\n", topic)
		fmt.Fprintf(&b, "<voice2>Thanks for having me. %s is a great place to start.</voice2>\n", capitalize(topic))
		b.WriteString("<voice1>So where should listeners begin?</voice1>\n")
		b.WriteString("<voice2>Right at the basics, and then we build from there.</voice2>\n")
	} else {
		fmt.Fprintf(&b, "<voice1>Picking up where we left off, let's get into %s.</voice1>\n", topic)
		b.WriteString("<voice2>Exactly. There's a lot more to say.</voice2>\n")
	}
	b.WriteString("</podcast>")
	return b.String(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package devserver

import (
	"regexp"
	"strconv"
	"strings"
)

var openTag = regexp.MustCompile(`<voice(\d+)>`)

// Turn is one tagged line of a script.
type Turn struct {
	Voice int
	Text  string
}

// ParseVoiceTags extracts <voiceN>...</voiceN> turns in order. An opening
// tag without its matching closing tag is skipped. Text is trimmed.
func ParseVoiceTags(script string) []Turn {
	var turns []Turn
	pos := 0
	for pos < len(script) {
		loc := openTag.FindStringSubmatchIndex(script[pos:])
		if loc == nil {
			break
		}
		openEnd := pos + loc[1]
		num := script[pos+loc[2] : pos+loc[3]]
		closing := "</voice" + num + ">"

		end := strings.Index(script[openEnd:], closing)
		if end < 0 {
			// No match for this tag; resume after its opening bracket.
			pos += loc[0] + 1
			continue
		}
		voice, err := strconv.Atoi(num)
		if err == nil {
			turns = append(turns, Turn{
				Voice: voice,
				Text:  strings.TrimSpace(script[openEnd : openEnd+end]),
			})
		}
		pos = openEnd + end + len(closing)
	}
	return turns
}

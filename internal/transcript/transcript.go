// Package transcript renders a turn history as a human-readable text block.
// Rendering is pure: identical input yields byte-identical output, so the
// local download and the exported row always agree.
package transcript

import (
	"fmt"
	"strings"

	"github.com/ryanhsiao89/trauma-tutor-bot/internal/session"
)

const divider = "----------------------------------------"

type Settings struct {
	Language string
	Model    string
}

func Render(settings Settings, turns []session.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[settings] language=%s model=%s\n", settings.Language, settings.Model)
	for _, t := range turns {
		b.WriteString(divider)
		b.WriteString("\n")
		b.WriteString(t.Role)
		b.WriteString(":\n")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

package gitutil

import "strings"

var doubleQuoteEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

// EscapeCommitMessage escapes message for use inside a double-quoted shell word,
// e.g. `say "hi" $5` becomes `say \"hi\" \$5`.
func EscapeCommitMessage(message string) string {
	return doubleQuoteEscaper.Replace(message)
}

// CommitCommandLine renders the commit the way a user would type it.
// It is only shown to the user; commits are run with an argument vector.
func CommitCommandLine(message string, push bool) string {
	line := `git add . && git commit -m "` + EscapeCommitMessage(message) + `"`
	if push {
		line += " && git push"
	}
	return line
}

//go:build !windows

package envstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	blockBegin = "# >>> schwabctl managed environment >>>"
	blockEnd   = "# <<< schwabctl managed environment <<<"
)

// persistDurable writes the managed block to the user's shell profile,
// replacing any previous block. Errors carry the profile path attempted.
func persistDurable(v Values) error {
	path, err := profilePath()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: reading %s: %v", ErrPersist, path, err)
	}

	content := stripBlock(string(existing))
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += renderBlock(v)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrPersist, path, err)
	}
	return nil
}

// profilePath picks the shell profile matching $SHELL, falling back to
// ~/.profile for unknown shells.
func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch filepath.Base(os.Getenv("SHELL")) {
	case "zsh":
		return filepath.Join(home, ".zshrc"), nil
	case "bash":
		return filepath.Join(home, ".bashrc"), nil
	default:
		return filepath.Join(home, ".profile"), nil
	}
}

func renderBlock(v Values) string {
	var b strings.Builder
	b.WriteString(blockBegin + "\n")
	for _, key := range Keys {
		fmt.Fprintf(&b, "export %s=%s\n", key, shellQuote(v.pairs()[key]))
	}
	b.WriteString(blockEnd + "\n")
	return b.String()
}

// stripBlock removes a previously written managed block, if any.
func stripBlock(content string) string {
	begin := strings.Index(content, blockBegin)
	if begin < 0 {
		return content
	}
	end := strings.Index(content, blockEnd)
	if end < 0 {
		// Truncated block from an interrupted write: drop the rest.
		return content[:begin]
	}
	rest := content[end+len(blockEnd):]
	rest = strings.TrimPrefix(rest, "\n")
	return content[:begin] + rest
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

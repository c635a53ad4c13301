package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/gagliardetto/solana-go"

	"github.com/credebt/setup/lending/pkg/config"
)

// EnvUpdate is the result of rewriting one env target.
type EnvUpdate struct {
	Path    string
	Key     string
	Updated bool
	// Skipped is set when the file does not exist.
	Skipped bool
}

// PropagateMint points each env target's KEY line at mint. Missing files are
// skipped and failures are logged and collected; none of them stop the run.
func (p *Provisioner) PropagateMint(mint solana.PublicKey) ([]EnvUpdate, []error) {
	var (
		updates []EnvUpdate
		errs    []error
	)
	for _, target := range p.cfg.EnvTargets {
		update, err := rewriteEnvKey(target, mint.String())
		if err != nil {
			p.log.Error("provision: failed to update env file", "path", target.Path, "key", target.Key, "error", err)
			fmt.Fprintf(p.out, "Error updating %s: %v\n", target.Path, err)
			errs = append(errs, err)
			continue
		}
		updates = append(updates, update)
		switch {
		case update.Skipped:
			p.log.Debug("provision: env file not found, skipping", "path", target.Path)
		case update.Updated:
			fmt.Fprintf(p.out, "Updated %s in %s\n", target.Key, target.Path)
		default:
			p.log.Warn("provision: key not present in env file", "path", target.Path, "key", target.Key)
		}
	}
	return updates, errs
}

// rewriteEnvKey replaces the first KEY=... line of the file in place,
// leaving every other line untouched.
func rewriteEnvKey(target config.EnvTarget, value string) (EnvUpdate, error) {
	update := EnvUpdate{Path: target.Path, Key: target.Key}

	info, err := os.Stat(target.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			update.Skipped = true
			return update, nil
		}
		return update, fmt.Errorf("failed to stat %s: %w", target.Path, err)
	}
	content, err := os.ReadFile(target.Path)
	if err != nil {
		return update, fmt.Errorf("failed to read %s: %w", target.Path, err)
	}

	re, err := regexp.Compile(`(?m)^` + regexp.QuoteMeta(target.Key) + `=[^\r\n]*`)
	if err != nil {
		return update, fmt.Errorf("invalid env key %q: %w", target.Key, err)
	}
	loc := re.FindIndex(content)
	if loc == nil {
		return update, nil
	}

	line := target.Key + "=" + value
	out := make([]byte, 0, len(content)-(loc[1]-loc[0])+len(line))
	out = append(out, content[:loc[0]]...)
	out = append(out, line...)
	out = append(out, content[loc[1]:]...)
	if err := os.WriteFile(target.Path, out, info.Mode().Perm()); err != nil {
		return update, fmt.Errorf("failed to write %s: %w", target.Path, err)
	}
	update.Updated = true
	return update, nil
}

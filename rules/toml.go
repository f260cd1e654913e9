package rules

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/oxhq/mclint/core"
)

type ruleFile struct {
	Rule []ruleEntry `toml:"rule"`
}

type ruleEntry struct {
	ID         string   `toml:"id"`
	Category   string   `toml:"category"`
	Severity   string   `toml:"severity"`
	Pattern    string   `toml:"pattern"`
	Global     bool     `toml:"global"`
	Message    string   `toml:"message"`
	Suggestion string   `toml:"suggestion"`
	DocsURL    string   `toml:"docs_url"`
	Dialects   []string `toml:"dialects"`
}

// LoadTOML reads custom rule definitions from a TOML file and adds them to
// the set. The file holds repeated [[rule]] tables mirroring Definition.
func LoadTOML(set *RuleSet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	var file ruleFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse rules file %s: %w", path, err)
	}

	for _, entry := range file.Rule {
		pattern, err := regexp.Compile(entry.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: invalid pattern: %w", entry.ID, err)
		}

		dialects := make([]core.Dialect, 0, len(entry.Dialects))
		for _, d := range entry.Dialects {
			dialects = append(dialects, core.Dialect(d))
		}

		def := Definition{
			ID:         entry.ID,
			Category:   core.Category(entry.Category),
			Severity:   core.Severity(entry.Severity),
			Pattern:    pattern,
			Global:     entry.Global,
			Message:    entry.Message,
			Suggestion: entry.Suggestion,
			DocsURL:    entry.DocsURL,
			Dialects:   dialects,
		}
		if err := set.Add(def); err != nil {
			return err
		}
	}

	return nil
}

package compat

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

const (
	statusOK    = "✅ OK"
	statusError = "⚠️ Error"
	statusNone  = "—"
)

// GenerateMatrix renders the cross-platform compatibility matrix covering
// every profile stored under base. Rows are fixture constructs, columns are
// platform keys, cells reflect each platform's recorded has_error flag.
// Malformed profiles are skipped with a warning; zero profiles still
// produce a valid document.
func GenerateMatrix(base string) (string, error) {
	profiles := loadProfilesUnder(base)

	var b strings.Builder
	b.WriteString("# SQL Compatibility Matrix\n\n")
	fmt.Fprintf(&b, "Profiles scanned: %d\n\n", len(profiles))

	if len(profiles) == 0 {
		b.WriteString("No behavior profiles recorded yet.\n")
		return b.String(), nil
	}

	constructs := map[string]bool{}
	for _, p := range profiles {
		for id := range p.Behaviors {
			constructs[id] = true
		}
	}
	rows := make([]string, 0, len(constructs))
	for id := range constructs {
		rows = append(rows, id)
	}
	sort.Strings(rows)

	writeRow(&b, "Construct", profiles, func(p *Profile) string { return p.PlatformKey })
	writeRow(&b, "---", profiles, func(*Profile) string { return "---" })
	for _, id := range rows {
		writeRow(&b, id, profiles, func(p *Profile) string {
			behavior, ok := p.Behaviors[id]
			switch {
			case !ok:
				return statusNone
			case behavior.HasError:
				return statusError
			default:
				return statusOK
			}
		})
	}
	b.WriteString("\n")

	b.WriteString("## Adaptation Rules\n\n")
	for _, p := range profiles {
		rules := "(none)"
		if len(p.AdaptationRules) > 0 {
			rules = strings.Join(p.AdaptationRules, ", ")
		}
		fmt.Fprintf(&b, "- `%s`: %s\n", p.PlatformKey, rules)
	}

	return b.String(), nil
}

func writeRow(b *strings.Builder, first string, profiles []*Profile, cell func(*Profile) string) {
	b.WriteString("| ")
	b.WriteString(first)
	for _, p := range profiles {
		b.WriteString(" | ")
		b.WriteString(cell(p))
	}
	b.WriteString(" |\n")
}

// loadProfilesUnder collects every decodable profile.json below base,
// sorted by platform key. Missing directories yield an empty slice.
func loadProfilesUnder(base string) []*Profile {
	var out []*Profile
	filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Name() != ProfileFileName {
			return nil
		}
		p, err := LoadProfile(path)
		if err != nil {
			slog.Warn("report.profile_skipped", "path", path, "err", err)
			return nil
		}
		out = append(out, p)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PlatformKey < out[j].PlatformKey })
	return out
}

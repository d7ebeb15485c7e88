package filter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk shape of a denylist file:
//
//	profiles:
//	  ko-news:
//	    include_defaults: true
//	    min_chars: 12
//	    patterns: ["기자", "무단 배포"]
type profileFile struct {
	Profiles map[string]profileSpec `yaml:"profiles"`
}

type profileSpec struct {
	IncludeDefaults bool     `yaml:"include_defaults"`
	MinChars        *int     `yaml:"min_chars"`
	MaxChars        int      `yaml:"max_chars"`
	Patterns        []string `yaml:"patterns"`
}

// ParseProfiles decodes YAML profile definitions. Min length defaults to
// DefaultMinChars when omitted.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	out := make(map[string]Profile, len(f.Profiles))
	for name, spec := range f.Profiles {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("profile with empty name")
		}
		patterns := spec.Patterns
		if spec.IncludeDefaults {
			patterns = append(append([]string{}, DefaultPatterns...), patterns...)
		}
		compiled, err := Compile(patterns)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		p := Profile{Name: name, Patterns: compiled, MinChars: DefaultMinChars, MaxChars: spec.MaxChars}
		if spec.MinChars != nil {
			p.MinChars = *spec.MinChars
		}
		if p.MinChars < 0 || p.MaxChars < 0 {
			return nil, fmt.Errorf("profile %s: negative length bound", name)
		}
		out[name] = p
	}
	return out, nil
}

// LoadProfiles reads a YAML profile file.
func LoadProfiles(path string) (map[string]Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return ParseProfiles(b)
}

// Resolve finds a profile by name, consulting loaded profiles before the
// built-in ones.
func Resolve(name string, loaded map[string]Profile) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := loaded[key]; ok {
		return p, nil
	}
	if p, ok := Builtin(key); ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("unknown filter profile %q", name)
}

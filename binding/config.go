package binding

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the YAML file form of Options.
//
//	keyMap:
//	  name: meta.name
//	mergeMissing: true
//	nonMergeableKeys: [spec.selector]
//	ignoreExtra: false
//	emptyMode:
//	  name: retain
//	rules:
//	  name:
//	    - required: true
//	    - pattern: '^.{1,10}$'
//	      message: length must be 1-10
type Config struct {
	KeyMap           map[string]string       `yaml:"keyMap"`
	MergeMissing     *bool                   `yaml:"mergeMissing"`
	NonMergeableKeys []string                `yaml:"nonMergeableKeys"`
	IgnoreExtra      bool                    `yaml:"ignoreExtra"`
	EmptyMode        map[string]string       `yaml:"emptyMode"`
	Rules            map[string][]RuleConfig `yaml:"rules"`
}

// RuleConfig is the YAML file form of Rule. Custom functions cannot be configured.
type RuleConfig struct {
	Required bool   `yaml:"required"`
	Pattern  string `yaml:"pattern"`
	Tag      string `yaml:"tag"`
	Message  string `yaml:"message"`
}

// LoadConfig parses a YAML binding configuration into Options.
func LoadConfig(data []byte) (Options, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Options{}, fmt.Errorf("binding: failed to parse config: %w", err)
	}
	return cfg.Options()
}

// Options validates the configuration and converts it.
func (c Config) Options() (Options, error) {
	opts := Options{
		KeyMap:           c.KeyMap,
		MergeMissing:     c.MergeMissing,
		NonMergeableKeys: c.NonMergeableKeys,
		IgnoreExtra:      c.IgnoreExtra,
	}
	if len(c.EmptyMode) > 0 {
		opts.EmptyMode = make(map[string]EmptyMode, len(c.EmptyMode))
		for k, v := range c.EmptyMode {
			m, ok := ParseEmptyMode(v)
			if !ok {
				return Options{}, fmt.Errorf("binding: emptyMode %q: unknown mode %q", k, v)
			}
			opts.EmptyMode[k] = m
		}
	}
	if len(c.Rules) > 0 {
		opts.Rules = make(map[string][]Rule, len(c.Rules))
		for field, rcs := range c.Rules {
			for i, rc := range rcs {
				r := Rule{Required: rc.Required, Tag: rc.Tag, Message: rc.Message}
				if rc.Pattern != "" {
					re, err := regexp.Compile(rc.Pattern)
					if err != nil {
						return Options{}, fmt.Errorf("binding: rule %d of %q: %w", i, field, err)
					}
					r.Pattern = re
				}
				if rc.Tag != "" {
					if err := checkTag(rc.Tag); err != nil {
						return Options{}, fmt.Errorf("binding: rule %d of %q: %w", i, field, err)
					}
				}
				opts.Rules[field] = append(opts.Rules[field], r)
			}
		}
	}
	return opts, nil
}

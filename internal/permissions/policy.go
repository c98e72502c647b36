package permissions

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Policy extends the built-in role table. Roles grants extra permissions per
// role; Users replaces the role of individual users.
//
//	roles:
//	  assistant: [view_reports]
//	users:
//	  "42": dentist
type Policy struct {
	Roles map[string][]string `mapstructure:"roles" yaml:"roles"`
	Users map[string]string   `mapstructure:"users" yaml:"users"`
}

// LoadPolicy reads the YAML policy at path. An empty path or a missing file
// yields an empty policy.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return &Policy{}, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return &Policy{}, nil
		}
		return nil, fmt.Errorf("reading permissions policy %s: %w", path, err)
	}

	policy := &Policy{}
	if err := v.Unmarshal(policy); err != nil {
		return nil, fmt.Errorf("parsing permissions policy %s: %w", path, err)
	}
	return policy, nil
}

package pipeline

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/graingraph/graingraph/pkg/errors"
)

// LoadConfig reads run options from a TOML file:
//
//	volume = { x = 30, y = 30, z = 30 }
//	grains = { x = 15, y = 15, z = 15 }
//	self_loops = true
//	steps = [0, 10, 20]
//	output = "badger://./run.db"
//
// Unknown keys are an INVALID_CONFIG error so typos do not pass silently.
// The result is not validated; callers apply flag overrides first.
func LoadConfig(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	return ParseConfig(string(data))
}

// ParseConfig decodes TOML run options.
func ParseConfig(data string) (Options, error) {
	var opts Options
	md, err := toml.Decode(data, &opts)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return opts, nil
}

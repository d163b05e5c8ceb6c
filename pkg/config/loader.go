package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable bonsetup reads
const EnvPrefix = "BONSETUP_"

// Sources lists where configuration is read from. Empty paths are skipped,
// as are files that do not exist.
type Sources struct {
	// UserFile is the per-user config.toml
	UserFile string

	// ProjectFile is bonsetup.toml inside the Bonsai checkout
	ProjectFile string

	// DotEnv is a .env file whose variables are added to the environment
	// without replacing ones already set
	DotEnv string

	// Overrides holds flag values keyed by config path, e.g. "toolchain.bootstrap"
	Overrides map[string]interface{}
}

// Load builds the configuration: embedded defaults, user file, project file,
// environment (after loading DotEnv), then overrides.
func Load(src Sources) (*Config, error) {
	logger := logging.GetLogger("config")
	k, err := load(src)
	if err != nil {
		return nil, err
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				trimStringHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("profile", cfg.Profile).
		Str("bootstrap", cfg.Toolchain.Bootstrap).
		Bool("dryRun", cfg.DryRun).
		Msg("Configuration loaded")
	return &cfg, nil
}

// Effective returns the merged configuration as TOML, for display
func Effective(src Sources) ([]byte, error) {
	k, err := load(src)
	if err != nil {
		return nil, err
	}
	out, err := k.Marshal(toml.Parser())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return out, nil
}

func load(src Sources) (*koanf.Koanf, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}
	known := k.Keys()

	// 2. User and project files
	for _, path := range []string{src.UserFile, src.ProjectFile} {
		if !fileExists(path) {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. .env, then environment
	if fileExists(src.DotEnv) {
		if err := godotenv.Load(src.DotEnv); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load %s", src.DotEnv)
		}
		logger.Debug().Str("path", src.DotEnv).Msg("Loaded .env")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper(known)), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flags
	if len(src.Overrides) > 0 {
		if err := k.Load(confmap.Provider(src.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}
	return k, nil
}

// envKeyMapper maps BONSETUP_TOOLCHAIN_BOOTSTRAP_URL to toolchain.bootstrap_url.
// Underscores are ambiguous, so known keys are matched first; unknown
// variables fall back to treating every underscore as a separator.
func envKeyMapper(known []string) func(string) string {
	byEnv := make(map[string]string, len(known))
	for _, key := range known {
		byEnv[strings.ReplaceAll(key, ".", "_")] = key
	}
	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if key, ok := byEnv[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", ".")
	}
}

func trimStringHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() == reflect.String && t.Kind() == reflect.String {
			if s, ok := data.(string); ok {
				return strings.TrimSpace(s), nil
			}
		}
		return data, nil
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

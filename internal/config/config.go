// Package config loads the configuration for the intersperse command
// from flags, PAR_ environment variables, and an optional .env file.
//
// Flags that were set explicitly take precedence over the environment,
// and the environment takes precedence over flag defaults. Variables
// in the .env file never override variables that are already set.
package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/internal/logging"
)

const (
	EnvPrefix      = "PAR"
	DefaultEnvFile = ".env"
)

// Config is the complete configuration for one run of the command.
type Config struct {
	Separator string `mapstructure:"separator"`
	Workers   int    `mapstructure:"workers" validate:"gte=0,lte=65536"`
	MinLen    int    `mapstructure:"min_len" validate:"gte=1"`
	SkipEmpty bool   `mapstructure:"skip_empty"`
	Trim      bool   `mapstructure:"trim"`
	EnvFile   string `mapstructure:"env_file"`

	Logging logging.Config `mapstructure:",squash"`

	// Files are the positional arguments; when empty, records are
	// read from standard input.
	Files []string `mapstructure:"-"`
}

// Flags returns the flag set for the command. Pass it to Load after
// adding any further flags.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringP("separator", "s", "", "record written between every pair of input records")
	fs.IntP("workers", "w", 0, "split budget for the parallel engine (0 selects one per CPU)")
	fs.Int("min-len", 1, "smallest range of records that is split")
	fs.Bool("skip-empty", false, "drop empty records before interspersing")
	fs.Bool("trim", false, "trim surrounding whitespace from every record")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error, fatal, disabled")
	fs.String("log-format", logging.FormatConsole, "log format: console or json")
	fs.Bool("log-no-color", false, "disable colors in console logs")
	fs.String("env-file", "", "load variables from this file (default ./"+DefaultEnvFile+" when present)")

	return fs
}

// Load parses the arguments with the flag set, resolves the
// configuration, and validates it. All configuration errors are
// rooted in ers.ErrMalformedConfiguration; pflag.ErrHelp is returned
// unmodified.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		if ers.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, ers.Join(err, ers.ErrMalformedConfiguration)
	}

	envFile, err := fs.GetString("env-file")
	if err != nil {
		return nil, ers.Join(err, ers.ErrMalformedConfiguration)
	}
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		bindErr = ers.Join(bindErr, v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f))
	})
	if bindErr != nil {
		return nil, ers.Join(bindErr, ers.ErrMalformedConfiguration)
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, ers.Join(ers.Wrap(err, "decoding configuration"), ers.ErrMalformedConfiguration)
	}
	conf.Files = fs.Args()

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// loadEnvFile loads an explicitly named env file, which must exist, or
// the default file if it exists.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return ers.Join(ers.Wrapf(err, "loading env file %q", path), ers.ErrMalformedConfiguration)
	}
	return nil
}

// Validate applies defaults to the logging configuration and checks
// every field.
func (c *Config) Validate() error {
	c.Logging.ApplyDefaults()

	if err := validate().Struct(c); err != nil {
		return fieldErrors(err)
	}

	return c.Logging.Validate()
}

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
		validatorInst.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validatorInst
}

func fieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !ers.As(err, &verrs) {
		return ers.Join(err, ers.ErrMalformedConfiguration)
	}

	errs := make([]error, 0, len(verrs)+1)
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s=%v fails %s%s", fe.Field(), fe.Value(), fe.Tag(), param(fe.Param())))
	}

	return ers.Join(append(errs, ers.ErrMalformedConfiguration)...)
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

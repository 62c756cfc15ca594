package server

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moontrade/prng/compress"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

func versline(conf Config) string {
	sha := ""
	if conf.GitSHA != "" {
		sha = " (" + conf.GitSHA + ")"
	}
	return fmt.Sprintf("%s version %s%s", conf.Name, conf.Version, sha)
}

const usage = `{{NAME}} version: {{VERSION}} ({{GITSHA}})

Usage: {{NAME}} [-a addr] [options]

Basic options:
  -v                   : display version
  -h                   : display help, this screen
  -a addr              : bind to address  (default: 127.0.0.1:11002)
  -l level             : log level  (default: info) [trace,debug,info,warn,silent]
  -c path              : JSON config file; flags given on the command line win

Security options:
  --auth auth          : password required from every client

Limits:
  --max-count n        : largest element count of one fill  (default: 1048576)
  --max-generators n   : generators hosted at once  (default: 4096)

Snapshots:
  --codec name         : default GEN.SAVE codec  (default: lz4)
                         [none,lz4,lz4hc,snappy,zstd]
`

// ErrVersion is returned by the flag parser after printing the version.
var ErrVersion = errors.New("version requested")

// Config is the configuration for the generator service.
type Config struct {
	// Name gives the server a name. Default "prngd"
	Name string

	// Version of the application. Default "0.0.0"
	Version string

	// GitSHA of the application.
	GitSHA string

	Addr          string    // default "127.0.0.1:11002"
	Auth          string    // default ""
	LogLevel      string    // default "info"
	LogJSON       bool      // default false
	LogOutput     io.Writer // default os.Stderr
	MaxCount      int       // default 1<<20
	MaxGenerators int       // default 4096
	Codec         string    // default "lz4"
	ConfigFile    string    // default ""
}

func (conf *Config) def() {
	if conf.Name == "" {
		conf.Name = "prngd"
	}
	if conf.Version == "" {
		conf.Version = "0.0.0"
	}
	if conf.Addr == "" {
		conf.Addr = "127.0.0.1:11002"
	}
	if conf.LogLevel == "" {
		conf.LogLevel = "info"
	}
	if conf.LogOutput == nil {
		conf.LogOutput = os.Stderr
	}
	if conf.MaxCount <= 0 {
		conf.MaxCount = 1 << 20
	}
	if conf.MaxGenerators <= 0 {
		conf.MaxGenerators = 4096
	}
	if conf.Codec == "" {
		conf.Codec = compress.LZ4.String()
	}
}

func (conf *Config) validate() error {
	if _, err := compress.Parse(conf.Codec); err != nil {
		return errors.Wrap(err, "codec")
	}
	return nil
}

// confInit fills conf from defaults, command line args and the optional
// config file, in increasing order of precedence for flags that were set.
func confInit(conf *Config, args []string) error {
	conf.def()
	fs := flag.NewFlagSet(conf.Name, flag.ContinueOnError)
	fs.SetOutput(conf.LogOutput)
	fs.Usage = func() {
		s := usage
		s = strings.Replace(s, "{{VERSION}}", conf.Version, -1)
		if conf.GitSHA == "" {
			s = strings.Replace(s, " ({{GITSHA}})", "", -1)
			s = strings.Replace(s, "{{GITSHA}}", "", -1)
		} else {
			s = strings.Replace(s, "{{GITSHA}}", conf.GitSHA, -1)
		}
		s = strings.Replace(s, "{{NAME}}", conf.Name, -1)
		fmt.Fprint(fs.Output(), s)
	}
	var vers bool
	fs.BoolVar(&vers, "v", false, "")
	fs.StringVar(&conf.Addr, "a", conf.Addr, "")
	fs.StringVar(&conf.LogLevel, "l", conf.LogLevel, "")
	fs.StringVar(&conf.ConfigFile, "c", conf.ConfigFile, "")
	fs.StringVar(&conf.Auth, "auth", conf.Auth, "")
	fs.BoolVar(&conf.LogJSON, "json-log", conf.LogJSON, "")
	fs.IntVar(&conf.MaxCount, "max-count", conf.MaxCount, "")
	fs.IntVar(&conf.MaxGenerators, "max-generators", conf.MaxGenerators, "")
	fs.StringVar(&conf.Codec, "codec", conf.Codec, "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if vers {
		fmt.Fprintf(fs.Output(), "%s\n", versline(*conf))
		return ErrVersion
	}
	if conf.ConfigFile != "" {
		data, err := os.ReadFile(conf.ConfigFile)
		if err != nil {
			return errors.Wrap(err, "config file")
		}
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := conf.apply(data, set); err != nil {
			return err
		}
	}
	return conf.validate()
}

// apply overlays a JSON document on conf, skipping fields whose flag is in
// skip.
func (conf *Config) apply(doc []byte, skip map[string]bool) error {
	if !gjson.ValidBytes(doc) {
		return errors.New("config file: invalid json")
	}
	str := func(flag, path string, dst *string) {
		if r := gjson.GetBytes(doc, path); r.Exists() && !skip[flag] {
			*dst = r.String()
		}
	}
	num := func(flag, path string, dst *int) {
		if r := gjson.GetBytes(doc, path); r.Exists() && !skip[flag] {
			*dst = int(r.Int())
		}
	}
	str("a", "addr", &conf.Addr)
	str("auth", "auth", &conf.Auth)
	str("l", "log.level", &conf.LogLevel)
	str("codec", "snapshot.codec", &conf.Codec)
	num("max-count", "limits.max_count", &conf.MaxCount)
	num("max-generators", "limits.max_generators", &conf.MaxGenerators)
	if r := gjson.GetBytes(doc, "log.json"); r.Exists() && !skip["json-log"] {
		conf.LogJSON = r.Bool()
	}
	conf.def()
	return nil
}

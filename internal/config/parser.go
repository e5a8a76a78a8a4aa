package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

// Stdin is the path that makes ParseConfig read the playbook from standard input.
const Stdin = "-"

var stdin io.Reader = os.Stdin

// ParseConfig loads a playbook from disk, or from standard input when path
// is Stdin, validates it, and returns the resulting model.
func ParseConfig(path string) (*Config, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, ovherrors.NewParseError(path, 0, err)
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if path != Stdin {
		cfg.Dir = filepath.Dir(path)
	}
	return cfg, nil
}

// Parse decodes and validates playbook contents. path is only used in errors.
func Parse(path string, data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ovherrors.NewParseError(path, 0, errors.New("playbook is empty"))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ovherrors.NewParseError(path, errorLine(err), err)
	}

	cfg.Settings.Credentials = cfg.Settings.Credentials.Expanded()

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// errorLine returns the first line yaml reported in err, or 0.
func errorLine(err error) int {
	msgs := []string{err.Error()}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		msgs = typeErr.Errors
	}

	for _, msg := range msgs {
		_, rest, ok := strings.Cut(msg, "line ")
		if !ok {
			continue
		}
		digits := rest
		if end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
			digits = rest[:end]
		}
		if line, convErr := strconv.Atoi(digits); convErr == nil {
			return line
		}
	}
	return 0
}


package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	dbNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

	passwordClasses = []struct {
		pattern *regexp.Regexp
		name    string
	}{
		{regexp.MustCompile(`[A-Z]`), "an uppercase letter"},
		{regexp.MustCompile(`[a-z]`), "a lowercase letter"},
		{regexp.MustCompile(`[0-9]`), "a number"},
		{regexp.MustCompile(`[^A-Za-z0-9]`), "a special character"},
	}

	sslModes = []string{"disable", "require", "verify-ca", "verify-full"}
)

// setting is a known configuration key and the rule its value must follow,
// whether it comes from the environment or from Secrets Manager
type setting struct {
	key   string
	check func(value string, env Environment) error
}

// settings lists every key the service reads
var settings = []setting{
	{"DB_DRIVER", oneOf(string(DriverPostgres), string(DriverSQLite), string(DriverMemory))},
	{"CACHE_BACKEND", oneOf(string(CacheNone), string(CacheMemory), string(CacheRedis), string(CacheDynamoDB))},
	{"CACHE_TTL_SECONDS", intBetween(1, 86400)},
	{"DEFAULT_PER_PAGE", intBetween(1, 100)},
	{"REDIS_PORT", intBetween(1, 65535)},
	{"DB_HOST", checkDBHost},
	{"DB_PORT", intBetween(1, 65535)},
	{"DB_NAME", checkDBName},
	{"DB_SSLMODE", checkSSLMode},
	{"DB_PASSWORD", checkPassword},
}

// checkSetting validates value against the rule of key. Unknown keys pass.
func checkSetting(key, value string, env Environment) error {
	for _, s := range settings {
		if s.key != key {
			continue
		}
		if err := s.check(value, env); err != nil {
			return &ValidationError{Field: key, Message: err.Error()}
		}
		return nil
	}
	return nil
}

// checkSettings validates every known key present in values
func checkSettings(values map[string]string, env Environment) error {
	for _, s := range settings {
		value, ok := values[s.key]
		if !ok {
			continue
		}
		if err := checkSetting(s.key, value, env); err != nil {
			return err
		}
	}
	return nil
}

func oneOf(allowed ...string) func(string, Environment) error {
	tag := "oneof=" + strings.Join(allowed, " ")
	return func(value string, _ Environment) error {
		if err := validate.Var(value, tag); err != nil {
			return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
		}
		return nil
	}
}

func intBetween(lo, hi int) func(string, Environment) error {
	tag := fmt.Sprintf("gte=%d,lte=%d", lo, hi)
	return func(value string, _ Environment) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.New("must be an integer")
		}
		if err := validate.Var(n, tag); err != nil {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func checkDBHost(value string, env Environment) error {
	if err := validate.Var(value, "required"); err != nil {
		return errors.New("host cannot be empty")
	}
	if env == Production && strings.EqualFold(value, "localhost") {
		return errors.New("localhost is not allowed in production")
	}
	return nil
}

func checkDBName(value string, _ Environment) error {
	if !dbNamePattern.MatchString(value) {
		return errors.New("must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

func checkSSLMode(value string, env Environment) error {
	if err := oneOf(sslModes...)(value, env); err != nil {
		return err
	}
	if env == Production && value == "disable" {
		return errors.New("SSL cannot be disabled in production")
	}
	return nil
}

func checkPassword(value string, env Environment) error {
	if value == "" {
		return errors.New("password cannot be empty")
	}
	if env != Production {
		return nil
	}
	if len(value) < 12 {
		return errors.New("must be at least 12 characters long in production")
	}
	for _, class := range passwordClasses {
		if !class.pattern.MatchString(value) {
			return fmt.Errorf("must contain %s in production", class.name)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// env reads variables sharing a prefix. Malformed optional values fall
// back to the default; malformed mandatory values panic.
type env struct {
	prefix string
}

func (e env) key(name string) string { return e.prefix + name }

func (e env) lookup(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(e.key(name)))
	return v, v != ""
}

func (e env) str(name, def string) string {
	if v, ok := e.lookup(name); ok {
		return v
	}
	return def
}

func (e env) integer(name string, def int) int {
	if v, ok := e.lookup(name); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (e env) boolean(name string, def bool) bool {
	if v, ok := e.lookup(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// duration ignores non-positive values.
func (e env) duration(name string, def time.Duration) time.Duration {
	if v, ok := e.lookup(name); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

// list splits a comma separated value, dropping blanks and quotes.
func (e env) list(name string) []string {
	v, ok := e.lookup(name)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e env) required(name string) string {
	v, ok := e.lookup(name)
	if !ok {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", e.key(name)))
	}
	return v
}

func (e env) requiredInt(name string) int {
	v := e.required(name)
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", e.key(name), v))
	}
	return i
}

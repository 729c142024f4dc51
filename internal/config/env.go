// Package config loads .env files and reads typed values from the environment.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv loads the first .env file found and returns its path, or "" when
// none was loaded. Existing environment variables are never overridden.
//
// Search order:
//  1. Explicit paths passed as arguments (the --env flag).
//  2. Directory of the running executable and up to two parents.
//  3. Current working directory.
func LoadEnv(paths ...string) string {
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			log.Printf("[Config] Failed to load %v: %v; using system environment variables", paths, err)
			return ""
		}
		return strings.Join(paths, ",")
	}

	for _, p := range envCandidates() {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[Config] Failed to load .env from %s: %v", p, err)
			return ""
		}
		return p
	}
	return ""
}

func envCandidates() []string {
	var candidates []string
	seen := map[string]bool{}
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dir := filepath.Dir(exe)
		for i := 0; i < 3; i++ {
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		add(filepath.Join(cwd, ".env"))
	}
	return candidates
}

// String returns the value of key or def when unset or empty.
func String(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Int returns key parsed as an int, or def when unset or malformed.
// Malformed values are logged.
func Int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] WARNING: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

// Float returns key parsed as a float64, or def when unset or malformed.
func Float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[Config] WARNING: invalid %s=%q, using default %g", key, v, def)
		return def
	}
	return f
}

// Bool returns key parsed as a bool ("1", "true", "yes" ...), or def.
func Bool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	log.Printf("[Config] WARNING: invalid %s=%q, using default %t", key, v, def)
	return def
}

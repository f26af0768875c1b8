package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// EnvWithDotenv layers .env files under getEnv: a non-empty value from
// getEnv wins, otherwise the first file defining the key is used. Missing
// files are skipped.
func EnvWithDotenv(getEnv func(string) string, files ...string) (func(string) string, error) {
	var layers []map[string]string
	for _, f := range files {
		if f == "" {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		layers = append(layers, vals)
	}

	return func(key string) string {
		if getEnv != nil {
			if v := getEnv(key); v != "" {
				return v
			}
		}
		for _, l := range layers {
			if v, ok := l[key]; ok {
				return v
			}
		}
		return ""
	}, nil
}

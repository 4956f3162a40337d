package validator

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

func HasNoJinja(field string, description string) error {
	if field != "" && (strings.Contains(field, "{{") || strings.Contains(field, "{%")) {
		return fmt.Errorf("%s must not contain jinja templating", description)
	}
	return nil
}

// RelativePath requires a clean, slash-separated path that stays inside its
// root, as used for template names.
func RelativePath(field, description string) error {
	if field == "" {
		return nil
	}
	if strings.HasPrefix(field, "/") || path.Clean(field) != field || strings.HasPrefix(field, "..") {
		return fmt.Errorf("%s must be a clean relative path, got %q", description, field)
	}
	return nil
}

// NoPrefix rejects values starting with prefix.
func NoPrefix(field, prefix, description string) error {
	if strings.HasPrefix(field, prefix) {
		return fmt.Errorf("%s must not start with %q", description, prefix)
	}
	return nil
}

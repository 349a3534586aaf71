package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The root path is a canonical node path: no trailing slash, no empty
	// or dot segments.
	root := cfg.Workspace.RootPath
	if root != "/" {
		if strings.HasSuffix(root, "/") {
			return fmt.Errorf("workspace.root_path: must not end with '/' (got %q)", root)
		}
		for _, seg := range strings.Split(root[1:], "/") {
			if seg == "" || seg == "." || seg == ".." {
				return fmt.Errorf("workspace.root_path: invalid segment %q in %q", seg, root)
			}
		}
	}

	// The selected store needs its required options
	switch cfg.Store.Type {
	case "badger":
		inMemory, _ := cfg.Store.Badger["in_memory"].(bool)
		if !inMemory && isBlank(cfg.Store.Badger["db_path"]) {
			return fmt.Errorf("store.badger: db_path is required unless in_memory is set")
		}
	case "filesystem":
		if isBlank(cfg.Store.Filesystem["path"]) {
			return fmt.Errorf("store.filesystem: path is required")
		}
	case "s3":
		if isBlank(cfg.Store.S3["bucket"]) {
			return fmt.Errorf("store.s3: bucket is required")
		}
	}

	return nil
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return !ok || strings.TrimSpace(s) == ""
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}

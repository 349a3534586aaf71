// Package settings holds the user-configurable project settings persisted
// alongside the file tree.
//
// Settings is a plain value. The edit helpers return modified copies and
// never alias slices of the receiver, so a Settings held by a snapshot is
// never changed behind the holder's back.
package settings

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultProjectName is the project name of a fresh workspace.
const DefaultProjectName = "Production Container 6AYR"

// Settings is the project configuration shown on the settings view.
type Settings struct {
	ProjectName   string        `json:"projectName" cbor:"projectName" validate:"required,max=128"`
	EnvVars       []EnvVar      `json:"envVars" cbor:"envVars" validate:"dive"`
	PublicAccess  bool          `json:"publicAccess" cbor:"publicAccess"`
	AutoRestart   bool          `json:"autoRestart" cbor:"autoRestart"`
	SSHKeys       []SSHKey      `json:"sshKeys" cbor:"sshKeys" validate:"dive"`
	Notifications Notifications `json:"notifications" cbor:"notifications"`
}

// EnvVar is one environment variable passed to the project process.
type EnvVar struct {
	Key   string `json:"key" cbor:"key" validate:"required,printascii,excludesall= ="`
	Value string `json:"value" cbor:"value"`
}

// SSHKey is an authorized public key.
type SSHKey struct {
	ID   string `json:"id" cbor:"id" validate:"required"`
	Name string `json:"name" cbor:"name" validate:"required"`
	Key  string `json:"key" cbor:"key" validate:"required"`
}

// Notifications selects which events notify the user.
type Notifications struct {
	OnCrash      bool `json:"onCrash" cbor:"onCrash"`
	OnLimitReach bool `json:"onLimitReach" cbor:"onLimitReach"`
	OnDeploy     bool `json:"onDeploy" cbor:"onDeploy"`
}

// Default returns the settings of a fresh workspace.
func Default() Settings {
	return Settings{
		ProjectName:  DefaultProjectName,
		EnvVars:      []EnvVar{{Key: "PYTHONUNBUFFERED", Value: "1"}},
		PublicAccess: false,
		AutoRestart:  true,
		SSHKeys:      []SSHKey{},
		Notifications: Notifications{
			OnCrash:      true,
			OnLimitReach: true,
			OnDeploy:     false,
		},
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.EnvVars = slices.Clone(s.EnvVars)
	s.SSHKeys = slices.Clone(s.SSHKeys)
	return s
}

// WithProjectName returns a copy with the project name replaced.
func (s Settings) WithProjectName(name string) Settings {
	out := s.Clone()
	out.ProjectName = name
	return out
}

// Env returns the value of key and whether it is set.
func (s Settings) Env(key string) (string, bool) {
	for _, ev := range s.EnvVars {
		if ev.Key == key {
			return ev.Value, true
		}
	}
	return "", false
}

// SetEnvVar sets key to value, keeping its position if it already exists
// and appending it otherwise.
func (s Settings) SetEnvVar(key, value string) Settings {
	out := s.Clone()
	for i := range out.EnvVars {
		if out.EnvVars[i].Key == key {
			out.EnvVars[i].Value = value
			return out
		}
	}
	out.EnvVars = append(out.EnvVars, EnvVar{Key: key, Value: value})
	return out
}

// RemoveEnvVar removes key. Missing keys are ignored.
func (s Settings) RemoveEnvVar(key string) Settings {
	out := s.Clone()
	out.EnvVars = slices.DeleteFunc(out.EnvVars, func(ev EnvVar) bool { return ev.Key == key })
	return out
}

// AddSSHKey appends a key with a fresh ID and returns the ID.
func (s Settings) AddSSHKey(name, key string) (Settings, string) {
	out := s.Clone()
	id := uuid.NewString()
	out.SSHKeys = append(out.SSHKeys, SSHKey{ID: id, Name: name, Key: key})
	return out, id
}

// RemoveSSHKey removes the key with the given ID. Missing IDs are ignored.
func (s Settings) RemoveSSHKey(id string) Settings {
	out := s.Clone()
	out.SSHKeys = slices.DeleteFunc(out.SSHKeys, func(k SSHKey) bool { return k.ID == id })
	return out
}

// WithNotifications returns a copy with the notification switches replaced.
func (s Settings) WithNotifications(n Notifications) Settings {
	out := s.Clone()
	out.Notifications = n
	return out
}

var validate = validator.New()

// Validate checks field constraints and that environment keys and SSH key
// IDs are unique.
func Validate(s Settings) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}

	keys := make(map[string]bool, len(s.EnvVars))
	for i, ev := range s.EnvVars {
		if keys[ev.Key] {
			return fmt.Errorf("envVars[%d]: duplicate key %q", i, ev.Key)
		}
		keys[ev.Key] = true
	}

	ids := make(map[string]bool, len(s.SSHKeys))
	for i, k := range s.SSHKeys {
		if ids[k.ID] {
			return fmt.Errorf("sshKeys[%d]: duplicate id %q", i, k.ID)
		}
		ids[k.ID] = true
	}
	return nil
}

func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

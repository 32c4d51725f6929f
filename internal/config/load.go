// Package config loads and validates the workspace manifest.
//
// The manifest is a single wsforge.yaml describing the workspace, the
// hosting namespace and the components to provision. Values can be
// overridden through WSFORGE_* environment variables.
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/wsforge/wsforge/internal/constants"
	"github.com/wsforge/wsforge/internal/domain"
	wserrors "github.com/wsforge/wsforge/internal/errors"
)

// newViperInstance creates a Viper instance with the standard prefix and
// key replacer.
func newViperInstance() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("WSFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the manifest from path, or from wsforge.yaml in the current
// directory when path is empty.
func Load(ctx context.Context, path string) (*domain.WorkspaceManifest, error) {
	v := newViperInstance()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(constants.ManifestFileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if isConfigNotFoundError(err) {
			return nil, fmt.Errorf("manifest %s: %w", constants.ManifestFileName, wserrors.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("reading manifest: %w: %w", wserrors.ErrConfigInvalid, err)
	}

	var manifest domain.WorkspaceManifest
	if err := v.Unmarshal(&manifest, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w: %w", wserrors.ErrConfigInvalid, err)
	}

	Normalize(&manifest)
	if err := Validate(&manifest); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("workspace", manifest.Workspace).
		Str("namespace", manifest.Namespace).
		Int("components", len(manifest.Components)).
		Str("file", v.ConfigFileUsed()).
		Msg("manifest loaded")

	return &manifest, nil
}

// isConfigNotFoundError returns true if the error is a viper config file
// not found error or a plain missing file.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound viper.ConfigFileNotFoundError
	if stderrors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "no such file or directory")
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

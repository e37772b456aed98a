package issuers

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
)

// decodeConfig decodes the inline issuer settings into out.
func decodeConfig(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "yaml",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding issuer settings: %w", err)
	}
	return nil
}

// secretValue returns value, or the content of the environment variable env.
func secretValue(value, env string) string {
	if value != "" {
		return value
	}
	if env != "" {
		return os.Getenv(env)
	}
	return ""
}

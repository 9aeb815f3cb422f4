package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/yunx/internal/shared"
	"github.com/desertthunder/yunx/internal/weapi"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// Encode prints the encrypted form of a request field map.
//
// With --key the session key is fixed, which makes the output reproducible.
func (r *Runner) Encode(ctx context.Context, cmd *cli.Command) error {
	var fields map[string]any
	if err := json.Unmarshal([]byte(cmd.String("data")), &fields); err != nil {
		return fmt.Errorf("%w: --data must be a JSON object: %w", shared.ErrInvalidFlag, err)
	}

	var payload *weapi.EncryptedPayload
	var err error
	if key := cmd.String("key"); key != "" {
		payload, err = weapi.EncodeWithKey(fields, key)
	} else {
		payload, err = r.encoder.Encode(fields)
	}
	if err != nil {
		return err
	}

	return r.writeJSON(payload, true)
}

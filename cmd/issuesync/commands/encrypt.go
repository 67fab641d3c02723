// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/l3montree-dev/issuesync/vault"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// encryptCredentials wraps a json credentials object read from in.
func encryptCredentials(v *vault.Vault, in io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	var credentials map[string]any
	if err := json.Unmarshal(raw, &credentials); err != nil {
		return nil, errors.Wrap(err, "credentials must be a json object")
	}
	if _, ok := credentials["encrypted"]; ok {
		return nil, errors.New("credentials are already encrypted")
	}
	return v.EncryptJSON(credentials)
}

func newEncryptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt integration credentials read from stdin",
		Long: `Reads a json credentials object from stdin and prints the {"encrypted": "..."}
form which can be stored on an integration. ENCRYPTION_KEY must match the key of
the running instance.`,
		Example: `  echo '{"email": "bot@example.com", "apiToken": "secret"}' | issuesync encrypt`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := encryptCredentials(vault.NewFromEnv(), cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darmiel/callsign/internal/usersig"
)

var decodeCmd = &cobra.Command{
	Use:     "decode <credential>",
	Aliases: []string{"inspect"},
	Short:   "Decode a credential and optionally verify its signature",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verify, _ := cmd.Flags().GetBool("verify")
		if !verify {
			env, err := usersig.Parse(args[0])
			if env == nil {
				return logError(err, "", "could not decode credential")
			}
			printEnvelope(env)
			if err != nil {
				return logError(err, "", "credential is not usable")
			}
			return nil
		}

		signing, err := decodeFlags.resolve()
		if err != nil {
			return fmt.Errorf("resolving signing configuration: %w", err)
		}
		key, err := signing.SigningKey(cmd.Context())
		if err != nil {
			return err
		}

		env, err := usersig.Verify(args[0], key.Secret, time.Now())
		if env == nil {
			return logError(err, "", "could not decode credential")
		}
		printEnvelope(env)
		fmt.Println()

		switch {
		case err == nil && env.SDKAppID != key.AppID:
			return logError(fmt.Errorf("signed for SDKAppID %d, expected %d", env.SDKAppID, key.AppID),
				"", "credential belongs to another application")
		case errors.Is(err, usersig.ErrExpired):
			return logError(err, "", "credential signature is valid but it expired")
		case err != nil:
			return logError(err, "", "credential is invalid")
		}
		logSuccess("credential is %s", bold(green("valid")))
		return nil
	},
}

var decodeFlags signingFlags

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeFlags.bind(decodeCmd.Flags())
	decodeCmd.Flags().Bool("verify", false, "verify the signature with the local signing key")
}

func printEnvelope(env *usersig.Envelope) {
	issued := time.Unix(env.Time, 0)
	expires := time.Unix(env.ExpiresAt(), 0)

	remaining := faint("expired")
	if left := time.Until(expires); left > 0 {
		remaining = faint(left.Round(time.Second).String() + " left")
	}

	fmt.Println(bold("\n── Credential ──"))
	fmt.Printf("  %s:     %s\n", faint("Version"), env.Version)
	fmt.Printf("  %s:  %s\n", faint("Identifier"), bold(env.Identifier))
	fmt.Printf("  %s:    %d\n", faint("SDKAppID"), env.SDKAppID)
	fmt.Printf("  %s:   %s\n", faint("Issued At"), issued.Format(time.RFC3339))
	fmt.Printf("  %s:  %s (%s)\n", faint("Expires At"), expires.Format(time.RFC3339), remaining)
	fmt.Printf("  %s:   %s\n", faint("Signature"), env.Sig)
}

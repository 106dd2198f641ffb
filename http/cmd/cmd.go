/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/nuts-vci/http"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh"
)

// maxTokenValidity is the longest validity of a token that is still accepted by the token authentication middleware.
const maxTokenValidity = 24 * time.Hour

// FlagSet defines the set of flags that sets the engine configuration
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("http", pflag.ContinueOnError)

	defs := http.DefaultConfig()
	flags.String("http.default.address", defs.Address, "Address and port the server will be listening to for the default HTTP interface. "+
		"Alternative interfaces for specific paths (e.g. /internal) can be configured with http.alt.<path>.")
	flags.String("http.default.log", string(defs.Log), fmt.Sprintf("What to log about HTTP requests. Options are '%s', '%s' (log request method, URI, IP and response code), and '%s' (log the request and response body, in addition to the metadata).", http.LogNothingLevel, http.LogMetadataLevel, http.LogMetadataAndBodyLevel))
	flags.String("http.default.tls", string(defs.TLSMode), fmt.Sprintf("Whether to enable TLS for the default interface, options are '%s', '%s', '%s'. Requires tls.certfile and tls.certkeyfile.", http.TLSDisabledMode, http.TLSServerCertMode, http.TLServerClientCertMode))
	flags.StringSlice("http.default.cors.origin", defs.CORS.Origin, "When set, enables CORS from the specified origins on the default interface.")
	flags.String("http.default.auth.type", string(defs.Auth.Type), fmt.Sprintf("Whether to enable authentication for the default interface, specify '%s' for bearer token mode.", http.BearerTokenAuth))
	flags.String("http.default.auth.audience", defs.Auth.Audience, "Expected audience for JWT tokens (default: hostname)")
	flags.String("http.default.auth.authorizedkeyspath", defs.Auth.AuthorizedKeysPath, "Path to an authorized_keys file for trusted JWT signers")
	flags.Float64("http.ratelimit.tokenrate", defs.RateLimit.TokenRate, "Number of token requests per second allowed per client IP.")
	flags.Int("http.ratelimit.tokenburst", defs.RateLimit.TokenBurst, "Number of token requests a client IP may do at once.")
	flags.Bool("http.ratelimit.internal", defs.RateLimit.Internal, "Enables rate limiting of internal APIs that create or change state. Always enabled in strict mode.")

	return flags
}

// ServerCmd contains sub-commands for the HTTP engine
func ServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "http commands",
	}
	cmd.AddCommand(createTokenCommand())
	return cmd
}

func createTokenCommand() *cobra.Command {
	var keyFile string
	var audience string
	var validity time.Duration
	cmd := &cobra.Command{
		Use:   "gen-token [user name]",
		Short: "Generates an access token for administrative operations.",
		Long: "Generates an access token for administrative operations, signed with the given private key. " +
			"The public key must be listed in the authorized_keys file of the server, if no user name is given the comment of that entry identifies the user.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFile == "" {
				return errors.New("--keyfile is required")
			}
			if audience == "" {
				hostname, err := os.Hostname()
				if err != nil {
					return fmt.Errorf("unable to discover hostname: %w", err)
				}
				audience = hostname
			}
			var user string
			if len(args) > 0 {
				user = args[0]
			}
			keyData, err := os.ReadFile(keyFile)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", keyFile, err)
			}
			privateKey, err := ssh.ParseRawPrivateKey(keyData)
			if err != nil {
				return fmt.Errorf("cannot parse private key: %w", err)
			}

			token, err := generateToken(privateKey, audience, user, validity, time.Now())
			if err != nil {
				return err
			}
			cmd.Println("Token:")
			cmd.Println()
			cmd.Println(token)
			cmd.Println()
			cmd.Println("Provide it as bearer token in the Authorization header when calling the internal APIs, " +
				"or save it in a file and use --token-file to have the CLI read it.")
			return nil
		},
	}
	cmd.Flags().StringVar(&keyFile, "keyfile", "", "File containing the private key (PEM or OpenSSH format) to sign the token with.")
	cmd.Flags().StringVar(&audience, "audience", "", "Audience of the token, must match http.<interface>.auth.audience of the server (default: hostname)")
	cmd.Flags().DurationVar(&validity, "validity", time.Hour, "Validity of the token, at most 24h.")
	return cmd
}

// generateToken creates a signed JWT that is accepted by the token authentication middleware.
func generateToken(privateKey interface{}, audience string, user string, validity time.Duration, now time.Time) (string, error) {
	if validity <= 0 || validity > maxTokenValidity {
		return "", fmt.Errorf("validity must be between 0 and %s", maxTokenValidity)
	}
	alg, key, err := signingAlgorithm(privateKey)
	if err != nil {
		return "", err
	}
	builder := jwt.NewBuilder().
		Audience([]string{audience}).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(validity))
	if user != "" {
		builder = builder.Subject(user)
	}
	token, err := builder.Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(alg, key))
	if err != nil {
		return "", fmt.Errorf("unable to sign token: %w", err)
	}
	return string(signed), nil
}

// signingAlgorithm returns the strongest algorithm the token authentication middleware accepts for the given key.
func signingAlgorithm(privateKey interface{}) (jwa.SignatureAlgorithm, interface{}, error) {
	switch key := privateKey.(type) {
	case *ecdsa.PrivateKey:
		switch key.Curve {
		case elliptic.P256():
			return jwa.ES256, key, nil
		case elliptic.P384():
			return jwa.ES384, key, nil
		case elliptic.P521():
			return jwa.ES512, key, nil
		}
		return "", nil, fmt.Errorf("unsupported curve: %s", key.Curve.Params().Name)
	case ed25519.PrivateKey:
		return jwa.EdDSA, key, nil
	case *ed25519.PrivateKey:
		return jwa.EdDSA, *key, nil
	case *rsa.PrivateKey:
		return jwa.PS512, key, nil
	}
	return "", nil, fmt.Errorf("unsupported private key type: %T", privateKey)
}

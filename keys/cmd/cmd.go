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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/crypto"
	"github.com/nuts-foundation/nuts-vci/http/client"
	apiV0 "github.com/nuts-foundation/nuts-vci/keys/api/v0"
	"github.com/nuts-foundation/nuts-vci/pki"
	"github.com/spf13/cobra"
)

const keysPath = "/internal/keys/v0"
const crlPath = "/internal/pki/v0/crl"

// Cmd contains sub-commands for administering the signing keys of the remote server
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Signing key administration commands",
	}
	cmd.AddCommand(withClientFlags(generateCommand()))
	cmd.AddCommand(withClientFlags(latestCommand()))
	cmd.AddCommand(withClientFlags(getCommand()))
	cmd.AddCommand(withClientFlags(revokeCommand()))
	cmd.AddCommand(withClientFlags(registerChainCommand()))
	cmd.AddCommand(withClientFlags(chainCommand()))
	cmd.AddCommand(withClientFlags(selfSignedCommand()))
	return cmd
}

// PKICmd contains sub-commands for the PKI of the signing keys
func PKICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pki",
		Short: "PKI commands",
	}
	cmd.AddCommand(withClientFlags(crlCommand()))
	return cmd
}

func withClientFlags(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().AddFlagSet(core.ClientConfigFlags())
	return cmd
}

func keyPath(kid string, suffix ...string) string {
	return strings.Join(append([]string{keysPath, url.PathEscape(kid)}, suffix...), "/")
}

func generateCommand() *cobra.Command {
	var curve string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates a signing key pair, which is used for new credentials until it's revoked or a newer key is generated.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			var response apiV0.KeyPairResponse
			if err = adminClient.JSON(cmd.Context(), http.MethodPost, keysPath, apiV0.GenerateKeyRequest{Curve: curve}, &response, http.StatusCreated); err != nil {
				return fmt.Errorf("unable to generate key: %w", err)
			}
			return printJSON(cmd, response)
		},
	}
	cmd.Flags().StringVar(&curve, "curve", crypto.CurveP256, fmt.Sprintf("Curve of the key, options are '%s', '%s' and '%s'.", crypto.CurveP256, crypto.CurveSecp256k1, crypto.CurveEd25519))
	return cmd
}

func latestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Prints the public key and certificate chain new credentials are signed with.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			// jwk.Key can't be unmarshalled into, so the response is printed as is
			var response map[string]interface{}
			if err = adminClient.JSON(cmd.Context(), http.MethodGet, keysPath+"/latest", nil, &response, http.StatusOK); err != nil {
				return fmt.Errorf("unable to get latest key: %w", err)
			}
			return printJSON(cmd, response)
		},
	}
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [kid]",
		Short: "Prints a signing key pair (without private key).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			var response apiV0.KeyPairResponse
			if err = adminClient.JSON(cmd.Context(), http.MethodGet, keyPath(args[0]), nil, &response, http.StatusOK); err != nil {
				return fmt.Errorf("unable to get key: %w", err)
			}
			return printJSON(cmd, response)
		},
	}
}

func revokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke [kid]",
		Short: "Revokes a signing key pair, it won't be used for new credentials anymore.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if err = adminClient.JSON(cmd.Context(), http.MethodDelete, keyPath(args[0]), nil, nil, http.StatusNoContent); err != nil {
				return fmt.Errorf("unable to revoke key: %w", err)
			}
			cmd.Printf("Key %s revoked\n", args[0])
			return nil
		},
	}
}

func registerChainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register-chain [kid] [PEM file]",
		Short: "Registers the certificate chain (leaf first) of a signing key pair.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("unable to read certificate chain: %w", err)
			}
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if _, err = adminClient.Raw(cmd.Context(), http.MethodPut, keyPath(args[0], "chain"), apiV0.MIMEPEMCertificateChain, data, http.StatusNoContent); err != nil {
				return fmt.Errorf("unable to register certificate chain: %w", err)
			}
			cmd.Printf("Certificate chain registered for key %s\n", args[0])
			return nil
		},
	}
}

func chainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chain [kid]",
		Short: "Prints the registered certificate chain of a signing key pair as PEM.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			data, err := adminClient.Raw(cmd.Context(), http.MethodGet, keyPath(args[0], "chain"), "", nil, http.StatusOK)
			if err != nil {
				return fmt.Errorf("unable to get certificate chain: %w", err)
			}
			cmd.Print(string(data))
			return nil
		},
	}
}

func selfSignedCommand() *cobra.Command {
	var request apiV0.SelfSignedRequest
	cmd := &cobra.Command{
		Use:   "selfsigned [kid]",
		Short: "Issues a self-signed certificate for a signing key pair and registers it as its certificate chain.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			body, err := json.Marshal(request)
			if err != nil {
				return err
			}
			data, err := adminClient.Raw(cmd.Context(), http.MethodPost, keyPath(args[0], "selfsigned"), "application/json", body, http.StatusOK)
			if err != nil {
				return fmt.Errorf("unable to issue self-signed certificate: %w", err)
			}
			cmd.Print(string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&request.CommonName, "cn", "", "Common name of the certificate subject.")
	cmd.Flags().StringVar(&request.Organization, "organization", "", "Organization of the certificate subject.")
	cmd.Flags().StringVar(&request.Country, "country", "", "Country (ISO 3166 alpha-2) of the certificate subject.")
	cmd.Flags().IntVar(&request.ValidityDays, "validity-days", 365, "Number of days the certificate is valid.")
	cmd.Flags().StringSliceVar(&request.DNSNames, "dns", nil, "DNS subject alternative name, can be specified multiple times.")
	cmd.Flags().StringSliceVar(&request.URIs, "uri", nil, "URI subject alternative name, can be specified multiple times.")
	_ = cmd.MarkFlagRequired("cn")
	return cmd
}

func crlCommand() *cobra.Command {
	var number string
	var nextUpdate time.Duration
	var revoked []string
	cmd := &cobra.Command{
		Use:   "crl",
		Short: "Issues a CRL signed with the latest signing key and prints it as PEM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			request := apiV0.IssueCRLRequest{
				Number:     number,
				NextUpdate: time.Now().Add(nextUpdate),
				Revoked:    []pki.RevokedCertificate{},
			}
			for _, entry := range revoked {
				certificate, err := parseRevokedCertificate(entry, time.Now())
				if err != nil {
					return err
				}
				request.Revoked = append(request.Revoked, certificate)
			}
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			body, err := json.Marshal(request)
			if err != nil {
				return err
			}
			data, err := adminClient.Raw(cmd.Context(), http.MethodPost, crlPath, "application/json", body, http.StatusOK)
			if err != nil {
				return fmt.Errorf("unable to issue CRL: %w", err)
			}
			cmd.Print(string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "CRL number (decimal), must increase with every issued CRL.")
	cmd.Flags().DurationVar(&nextUpdate, "next-update", 7*24*time.Hour, "Time until the next CRL will be issued.")
	cmd.Flags().StringSliceVar(&revoked, "revoked", nil, "Revoked certificate as <hex serial>[:<reason code>], can be specified multiple times.")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

// parseRevokedCertificate parses <hex serial>[:<reason code>]. The revocation date is set to now.
func parseRevokedCertificate(entry string, now time.Time) (pki.RevokedCertificate, error) {
	serial, reasonStr, hasReason := strings.Cut(entry, ":")
	result := pki.RevokedCertificate{SerialHex: serial, RevocationDate: now}
	if hasReason {
		reason, err := strconv.Atoi(reasonStr)
		if err != nil {
			return result, fmt.Errorf("invalid reason code of revoked certificate %s", serial)
		}
		result.Reason = &reason
	}
	return result, nil
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

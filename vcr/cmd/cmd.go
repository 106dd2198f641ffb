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
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/nuts-foundation/nuts-vci/core"
	"github.com/nuts-foundation/nuts-vci/http/client"
	"github.com/nuts-foundation/nuts-vci/vcr"
	apiV0 "github.com/nuts-foundation/nuts-vci/vcr/api/issuer/v0"
	"github.com/nuts-foundation/nuts-vci/vcr/openid4vci"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagSet contains flags relevant for the credential issuer
func FlagSet() *pflag.FlagSet {
	defs := vcr.DefaultConfig()
	flagSet := pflag.NewFlagSet("issuer", pflag.ContinueOnError)
	flagSet.String("issuer.identifier", defs.Identifier, "Credential Issuer Identifier, which wallets must use as audience of proofs. Defaults to url.")
	flagSet.Bool("issuer.anonymousaccess", defs.AnonymousAccess, "Allow wallets without client ID to present proofs without iss claim in the pre-authorized code flow.")
	flagSet.Duration("issuer.preauthorizedcode.ttl", defs.PreAuthorizedCode.TTL, "Time a pre-authorized code can be redeemed after the offer was created.")
	flagSet.Bool("issuer.preauthorizedcode.singleuse", defs.PreAuthorizedCode.SingleUse, "When set, pre-authorized codes without transaction code can be redeemed only once. "+
		"Codes with transaction code are always single-use.")
	flagSet.Bool("issuer.preauthorizedcode.needsproof", defs.PreAuthorizedCode.NeedsProof, "Require a proof of possession of the holder's key by default for credentials issued for an offer.")
	flagSet.Int("issuer.preauthorizedcode.txcodelength", defs.PreAuthorizedCode.TxCodeLength, "Number of digits of generated transaction codes (PINs).")
	flagSet.Int("issuer.preauthorizedcode.maxpinattempts", defs.PreAuthorizedCode.MaxPINAttempts, "Number of times a transaction code (PIN) may be presented for a pre-authorized code, after which the code is locked. 0 disables the limit.")
	flagSet.Duration("issuer.accesstokenttl", defs.AccessTokenTTL, "Lifetime of access tokens.")
	flagSet.Duration("issuer.cnoncettl", defs.CNonceTTL, "Lifetime of c_nonces.")
	flagSet.Duration("issuer.credential.validity", defs.Credential.Validity, "Validity of issued credentials.")
	flagSet.String("issuer.credential.x5u", defs.Credential.X5U, "URL of the signing key's certificate chain. When set, it's put in the header of JWT credentials instead of the chain itself.")
	flagSet.String("issuer.offerendpoint", defs.OfferEndpoint, "Custom URL scheme or wallet endpoint credential offers are encoded for.")
	return flagSet
}

// OfferCmd contains sub-commands for creating and inspecting credential offers
func OfferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offer",
		Short: "Credential offer commands",
	}
	cmd.AddCommand(createOfferCommand())
	cmd.AddCommand(decodeOfferCommand())
	return cmd
}

func createOfferCommand() *cobra.Command {
	var configurationIDs []string
	var claims string
	var claimsFile string
	var requirePIN bool
	var needsProof bool
	var noQR bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Creates a pre-authorized credential offer on the remote server and prints it as URL and QR code.",
		Long: "Creates a pre-authorized credential offer on the remote server and prints it as URL and QR code. " +
			"The claims are the credential subject of the offered credentials, given as JSON object.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			request := apiV0.CreateOfferRequest{
				CredentialConfigurationIDs: configurationIDs,
				RequirePIN:                 requirePIN,
			}
			if cmd.Flags().Changed("needs-proof") {
				request.NeedsProof = &needsProof
			}
			var err error
			if request.Claims, err = readClaims(claims, claimsFile); err != nil {
				return err
			}
			adminClient, err := client.NewFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			var response apiV0.CreateOfferResponse
			if err = adminClient.JSON(cmd.Context(), http.MethodPost, apiV0.OfferPath, request, &response, http.StatusOK); err != nil {
				return fmt.Errorf("unable to create offer: %w", err)
			}

			cmd.Println("Offer URL:")
			cmd.Println(response.URL)
			if response.PIN != "" {
				cmd.Println()
				cmd.Println("PIN (provide it to the holder out-of-band): " + response.PIN)
			}
			cmd.Println()
			cmd.Println("Expires at: " + response.ExpiresAt.Format(time.RFC3339))
			if !noQR {
				cmd.Println()
				qrterminal.GenerateHalfBlock(response.URL, qrterminal.L, cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&configurationIDs, "id", nil, "ID of an offered credential configuration, can be specified multiple times.")
	cmd.Flags().StringVar(&claims, "claims", "", "Credential subject claims as JSON object.")
	cmd.Flags().StringVar(&claimsFile, "claims-file", "", "File containing the credential subject claims as JSON object.")
	cmd.Flags().BoolVar(&requirePIN, "pin", false, "Protect the offer with a transaction code (PIN).")
	cmd.Flags().BoolVar(&needsProof, "needs-proof", false, "Require a proof of possession of the holder's key. Defaults to issuer.preauthorizedcode.needsproof of the server.")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "Don't render the offer URL as QR code.")
	_ = cmd.MarkFlagRequired("id")
	cmd.Flags().AddFlagSet(core.ClientConfigFlags())
	return cmd
}

func readClaims(claims string, claimsFile string) (map[string]interface{}, error) {
	if claims != "" && claimsFile != "" {
		return nil, errors.New("--claims and --claims-file are mutually exclusive")
	}
	data := []byte(claims)
	if claimsFile != "" {
		var err error
		if data, err = os.ReadFile(claimsFile); err != nil {
			return nil, fmt.Errorf("unable to read claims file: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("claims must be a JSON object: %w", err)
	}
	return result, nil
}

func decodeOfferCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [offer URL]",
		Short: "Decodes a credential offer URL and prints the offer as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offer, err := openid4vci.URLToCredentialOffer(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(offer, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack"
	"gopkg.in/yaml.v3"
)

type publishOptions struct {
	File    string
	Version string
	Token   string
}

func newPublishCommand(open opener) *cobra.Command {
	opts := publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a new broker pack from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, open, func(s *session) error {
				return runPublish(cmd, s, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Pack file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.Version, "version", "", "Override the version in the file")
	cmd.Flags().StringVar(&opts.Token, "token", "", "Admin token (defaults to ADMIN_TOKEN)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runPublish(cmd *cobra.Command, s *session, opts publishOptions) error {
	req, err := readPackFile(opts.File)
	if err != nil {
		return err
	}
	if opts.Version != "" {
		req.Version = opts.Version
	}
	token := opts.Token
	if token == "" {
		token = s.adminToken
	}
	pack, err := s.svc.Create(cmd.Context(), "Bearer "+token, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d brokers, created_at %s)\n", pack.Version, len(pack.Brokers), pack.CreatedAt)
	return nil
}

// readPackFile decodes a create request. JSON is accepted because it is valid YAML.
func readPackFile(path string) (brokerpack.CreateRequest, error) {
	var req brokerpack.CreateRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot read pack file %s", path)).
			WithCause(err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		return req, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot parse pack file %s", path)).
			WithCause(err)
	}
	return req, nil
}

func printPack(cmd *cobra.Command, p *brokerpack.BrokerPack) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

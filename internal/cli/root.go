package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wipefix/wipefix/backend/go-services/internal/auth"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/repository"
	"github.com/wipefix/wipefix/backend/go-services/internal/brokerpack/service"
	"github.com/wipefix/wipefix/backend/go-services/internal/config"
	"github.com/wipefix/wipefix/backend/go-services/internal/database"
	"github.com/wipefix/wipefix/backend/go-services/internal/storage"
	"github.com/wipefix/wipefix/backend/go-services/pkg/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// session is an opened pack service plus the server-side admin token.
type session struct {
	svc        service.Service
	adminToken string
	close      func()
}

type opener func(ctx context.Context) (*session, error)

type rootOptions struct {
	LogLevel string
}

func Execute() {
	root := newRootCommand(openMongo)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", errorMessage(err))
		if cause := errors.Unwrap(err); cause != nil {
			fmt.Fprintf(os.Stderr, "  cause: %v\n", cause)
		}
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand(open opener) *cobra.Command {
	opts := rootOptions{}
	cmd := &cobra.Command{
		Use:           "packctl",
		Short:         "Operate the broker pack registry",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.UseConsole()
			logger.Init(viper.GetString("log_level"))
		},
	}
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newPublishCommand(open))
	cmd.AddCommand(newGetCommand(open))
	cmd.AddCommand(newLatestCommand(open))
	cmd.AddCommand(newRepairPointerCommand(open))
	return cmd
}

// openMongo wires the service exactly as the server does, minus the memory fallback.
func openMongo(ctx context.Context) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to load config").
			WithCause(err)
	}
	if cfg.MongoDB.URI == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("MONGODB_URI (or MONGO_URL) is required")
	}
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, database.RetryPolicy{Attempts: 2, Backoff: database.DefaultRetryPolicy.Backoff})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("cannot reach MongoDB").
			WithCause(err)
	}
	db := client.Database(cfg.MongoDB.Database)
	repo := repository.NewMongoRepo(db.Collection(cfg.MongoDB.PacksCollection), db.Collection(cfg.MongoDB.MetaCollection))

	var opts []service.Option
	if cfg.MinIO.Enabled() {
		mirror, err := storage.NewPackMirror(&cfg.MinIO)
		if err != nil {
			logger.Warnf("static mirror disabled: %v", err)
		} else {
			opts = append(opts, service.WithMirror(mirror))
		}
	}
	return &session{
		svc:        service.New(repo, auth.NewAdminAuthorizer(cfg.Admin.Token), opts...),
		adminToken: cfg.Admin.Token,
		close:      func() { _ = client.Disconnect(context.Background()) },
	}, nil
}

func withSession(cmd *cobra.Command, open opener, fn func(*session) error) error {
	s, err := open(cmd.Context())
	if err != nil {
		return err
	}
	if s.close != nil {
		defer s.close()
	}
	return fn(s)
}

func exitCodeForError(err error) int {
	if !isBuilt(err) {
		return 1
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound:
		return 4
	case errbuilder.CodeInternal, errbuilder.CodeFailedPrecondition:
		return 5
	default:
		return 1
	}
}

func isBuilt(err error) bool {
	var builder *errbuilder.ErrBuilder
	return errors.As(err, &builder)
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

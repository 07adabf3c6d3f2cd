package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "avd/internal/jwt_token"
	"avd/pkg/domain"
)

type tokenOptions struct {
	userID int64
	name   string
	email  string
	role   string
	ttl    time.Duration
}

var tokenOpts tokenOptions

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local testing",
	Long: `Signs an access token with the configured key. Intended for development
and smoke tests; production tokens come from the identity provider.`,
	Example: `  avd token --user-id 1 --role admin
  curl -H "Authorization: Bearer $(avd token --user-id 2 --role rh)" localhost:8080/admin/audit/`,
	RunE: runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.Int64Var(&tokenOpts.userID, "user-id", 0, "user id (required)")
	f.StringVar(&tokenOpts.name, "name", "", "display name")
	f.StringVar(&tokenOpts.email, "email", "", "email address")
	f.StringVar(&tokenOpts.role, "role", string(domain.RoleContributor), "admin, rh, gestor or colaborador")
	f.DurationVar(&tokenOpts.ttl, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("load config", err)
		return err
	}
	actor, err := tokenOpts.actor()
	if err != nil {
		printError("token", err)
		return err
	}

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	token, err := jwt.GenerateAccessToken(actor, tokenOpts.ttl)
	if err != nil {
		printError("sign token", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func (o tokenOptions) actor() (domain.Actor, error) {
	if o.userID <= 0 {
		return domain.Actor{}, errors.New("user id must be positive")
	}
	role, err := domain.ParseRole(o.role)
	if err != nil {
		return domain.Actor{}, err
	}
	if o.ttl <= 0 {
		return domain.Actor{}, errors.New("ttl must be positive")
	}
	return domain.Actor{ID: domain.UserID(o.userID), Name: o.name, Email: o.email, Role: role}, nil
}

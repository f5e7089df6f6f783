package main

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/auth0/go-jwks-guard/internal/server"
	"github.com/auth0/go-jwks-guard/validator"
)

// checkOutput is printed by the check command.
type checkOutput struct {
	Valid   bool              `json:"valid"`
	Reason  validator.Reason  `json:"reason,omitempty"`
	Message string            `json:"message,omitempty"`
	Cause   string            `json:"cause,omitempty"`
	Header  map[string]any    `json:"header,omitempty"`
	Claims  *validator.Claims `json:"claims,omitempty"`
}

func newCheckCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check <token>",
		Short: "Validate a token against the configured JWKS",
		Long: `Validate a token exactly as the protected routes would and print the
result as JSON. The command exits non-zero when the token is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			logger, _, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			gin.SetMode(gin.ReleaseMode)

			s, err := server.New(cmd.Context(), cfg, server.WithLogger(logger))
			if err != nil {
				return err
			}

			token := args[0]
			result := s.Validator().Validate(cmd.Context(), token)

			out := checkOutput{
				Valid:  result.Valid(),
				Header: unverifiedHeader(token),
				Claims: result.Claims,
			}
			if !result.Valid() {
				out.Reason = result.Reason
				out.Message = result.Reason.Message()
				if result.Cause != nil {
					out.Cause = result.Cause.Error()
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}

			if !out.Valid {
				return fmt.Errorf("token rejected: %s", out.Reason)
			}
			return nil
		},
	}
}

// unverifiedHeader decodes the token header without checking anything. It
// is informational only.
func unverifiedHeader(token string) map[string]any {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	return parsed.Header
}

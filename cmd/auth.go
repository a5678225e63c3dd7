package main

import (
	"context"
	"time"

	"github.com/desertthunder/hotlist/internal/repositories"
	"github.com/desertthunder/hotlist/internal/shared"
	"github.com/desertthunder/hotlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// tokenStatus describes the stored token without exposing it.
type tokenStatus struct {
	Stored          bool      `json:"stored"`
	Valid           bool      `json:"valid"`
	AddedAt         time.Time `json:"added_at,omitzero"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
	Scope           string    `json:"scope,omitempty"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	Records         int       `json:"records"` // tokens issued so far, including expired ones
}

// AuthLogin runs the authorization code flow regardless of any stored token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	db, err := shared.OpenStore(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := r.tokenManager(repositories.NewSQLStore(db)).Authorize(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("authorization successful", "scope", rec.Scope)
	return r.writePlain("%s\n", ui.Styles.OK("Authorized; token valid until %s", rec.ExpiresAt().Local().Format(time.DateTime)))
}

// AuthStatus reports whether a stored token exists and is still valid.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	db, err := shared.OpenStore(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewSQLStore(db).ListTokens(ctx, 0)
	if err != nil {
		return err
	}

	status := tokenStatus{}
	if len(records) > 0 {
		rec := records[0]
		status = tokenStatus{
			Stored:          true,
			Records:         len(records),
			Valid:           rec.IsValid(time.Now()),
			AddedAt:         rec.AddedAt,
			ExpiresAt:       rec.ExpiresAt(),
			Scope:           rec.Scope,
			HasRefreshToken: rec.RefreshToken != "",
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	switch {
	case !status.Stored:
		r.writePlain("%s\n", ui.Styles.Warn("Not authorized"))
		return r.writePlain("%s\n", ui.Styles.Help("Run `hotlist auth login` to authorize"))
	case status.Valid:
		r.writePlain("%s\n", ui.Styles.OK("Token valid until %s", status.ExpiresAt.Local().Format(time.DateTime)))
	case status.HasRefreshToken:
		r.writePlain("%s\n", ui.Styles.Warn("Token expired at %s; it will be refreshed on the next run", status.ExpiresAt.Local().Format(time.DateTime)))
	default:
		r.writePlain("%s\n", ui.Styles.Err("Token expired and cannot be refreshed"))
	}

	if status.Scope != "" {
		r.writePlain("Scope: %s\n", status.Scope)
	}
	r.writePlain("Token records: %d\n", status.Records)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wellesley-hci/lexi-api/internal/domain"
	"github.com/wellesley-hci/lexi-api/internal/store"
)

// seedFile is the on-disk fixture format consumed by the seed command.
type seedFile struct {
	Workspaces []seedWorkspace `yaml:"workspaces"`
	Users      []seedUser      `yaml:"users"`
}

type seedWorkspace struct {
	Name      string            `yaml:"name"`
	Questions []domain.Question `yaml:"questions"`
}

type seedUser struct {
	Email       string           `yaml:"email"`
	Name        string           `yaml:"name"`
	Role        string           `yaml:"role"`
	Memberships []seedMembership `yaml:"memberships"`
}

type seedMembership struct {
	Workspace    string `yaml:"workspace"`
	AnchorAnswer string `yaml:"anchor_answer"`
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load workspaces and users from a YAML fixture",
		Long: `Seed reads a YAML fixture and creates the workspaces and users it
describes, provisioning each workspace's response table. Workspaces that
already exist by name and users that already exist by email are skipped, so
re-seeding is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}

			var seed seedFile
			if err := yaml.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("failed to parse seed file: %w", err)
			}

			return a.runSeed(cmd.Context(), seed)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the YAML seed fixture")
	return cmd
}

func (a *app) runSeed(ctx context.Context, seed seedFile) error {
	existing, err := a.workspaces.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}
	byName := make(map[string]*domain.Workspace, len(existing))
	for _, ws := range existing {
		byName[ws.Name] = ws
	}

	for _, sw := range seed.Workspaces {
		if _, ok := byName[sw.Name]; ok {
			a.logger.Info("workspace already exists, skipping", "name", sw.Name)
			continue
		}

		ws, err := domain.NewWorkspace(sw.Name, sw.Questions)
		if err != nil {
			return fmt.Errorf("invalid workspace %q: %w", sw.Name, err)
		}
		if err := a.workspaces.Create(ctx, ws); err != nil {
			return fmt.Errorf("failed to create workspace %q: %w", sw.Name, err)
		}
		if err := a.registrar.EnsureResponseTable(ctx, ws); err != nil {
			return fmt.Errorf("failed to provision table for %q: %w", sw.Name, err)
		}

		byName[ws.Name] = ws
		a.logger.Info("seeded workspace", "name", ws.Name, "workspace_id", ws.ID)
	}

	for _, su := range seed.Users {
		user, err := domain.NewUser(su.Email, su.Name, su.Role)
		if err != nil {
			return fmt.Errorf("invalid user %q: %w", su.Email, err)
		}

		err = a.users.Create(ctx, user)
		switch {
		case errors.Is(err, store.ErrEmailExists):
			a.logger.Info("user already exists, skipping", "email", user.Email)
			if user, err = a.users.GetByEmail(ctx, user.Email); err != nil {
				return fmt.Errorf("failed to load existing user %q: %w", su.Email, err)
			}
		case err != nil:
			return fmt.Errorf("failed to create user %q: %w", su.Email, err)
		}

		changed := false
		for _, m := range su.Memberships {
			ws, ok := byName[m.Workspace]
			if !ok {
				return fmt.Errorf("user %q references unknown workspace %q", su.Email, m.Workspace)
			}
			if !user.MemberOf(ws.ID) {
				user.JoinWorkspace(ws.ID, m.AnchorAnswer)
				changed = true
			}
		}
		if changed {
			if err := a.users.Update(ctx, user); err != nil {
				return fmt.Errorf("failed to update memberships for %q: %w", su.Email, err)
			}
		}

		a.logger.Info("seeded user", "email", user.Email, "user_id", user.ID)
	}

	return nil
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bargom/notifydal/internal/database/models"
	"github.com/bargom/notifydal/internal/database/mongodb"
	"github.com/bargom/notifydal/internal/database/repository"
	"github.com/bargom/notifydal/internal/pagination"
)

var (
	organizationID string
	environmentID  string
	listSkip       int64
	listLimit      int64
	activeFilter   string
)

// newTemplatesCmd creates the templates command group.
func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Inspect notification templates",
		Long: `Read and soft-delete notification templates directly against the
configured storage backend.`,
	}

	cmd.AddCommand(newTemplatesListCmd())
	cmd.AddCommand(newTemplatesActiveCmd())
	cmd.AddCommand(newTemplatesGetCmd())
	cmd.AddCommand(newTemplatesTriggerCmd())
	cmd.AddCommand(newTemplatesDeleteCmd())
	cmd.AddCommand(newTemplatesDeletedCmd())

	return cmd
}

func newTemplatesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of templates, newest first",
		Args:  cobra.NoArgs,
		Example: `  notifydal templates list --org 64b7f0c2a1e4d3b2c1a09f8e --env 64b7f0c2a1e4d3b2c1a09f8f
  notifydal templates list --org ... --env ... --skip 20 --limit 20 -o json`,
		RunE: runTemplatesList,
	}

	cmd.Flags().StringVar(&organizationID, "org", "", "organization id")
	cmd.Flags().StringVar(&environmentID, "env", "", "environment id")
	cmd.Flags().Int64Var(&listSkip, "skip", 0, "number of templates to skip")
	cmd.Flags().Int64Var(&listLimit, "limit", pagination.DefaultLimit, "maximum number of templates to return")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	page := pagination.NewPageRequest(listSkip, listLimit)
	page.Clamp(pagination.MaxLimit)

	return withTemplates(cmd, func(ctx context.Context, repo repository.TemplateRepo) error {
		result, err := repo.GetList(ctx, organizationID, environmentID, page)
		if err != nil {
			return err
		}
		if getOutputFormat() == "json" {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		if err := writeTemplateTable(cmd.OutOrStdout(), result.Data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d templates in environment\n", len(result.Data), result.TotalCount)
		return nil
	})
}

func newTemplatesActiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "active",
		Short: "List templates filtered by their active flag",
		Long: `List every template in the organization and environment. With --active
only templates whose active flag matches are returned.`,
		Args: cobra.NoArgs,
		Example: `  notifydal templates active --org ... --env ...
  notifydal templates active --org ... --env ... --active=false`,
		RunE: runTemplatesActive,
	}

	cmd.Flags().StringVar(&organizationID, "org", "", "organization id")
	cmd.Flags().StringVar(&environmentID, "env", "", "environment id")
	cmd.Flags().StringVar(&activeFilter, "active", "", "filter by active flag (true|false)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}

func runTemplatesActive(cmd *cobra.Command, args []string) error {
	var active *bool
	if activeFilter != "" {
		v, err := strconv.ParseBool(activeFilter)
		if err != nil {
			return fmt.Errorf("invalid --active value %q: must be true or false", activeFilter)
		}
		active = &v
	}

	return withTemplates(cmd, func(ctx context.Context, repo repository.TemplateRepo) error {
		items, err := repo.GetActiveList(ctx, organizationID, environmentID, active)
		if err != nil {
			return err
		}
		if getOutputFormat() == "json" {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		return writeTemplateTable(cmd.OutOrStdout(), items)
	})
}

func newTemplatesGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <id>",
		Short:   "Show a template with its steps resolved",
		Args:    cobra.ExactArgs(1),
		Example: `  notifydal templates get 64b7f0c2a1e4d3b2c1a09f90 --org 64b7f0c2a1e4d3b2c1a09f8e`,
		RunE:    runTemplatesGet,
	}

	cmd.Flags().StringVar(&organizationID, "org", "", "organization id")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func runTemplatesGet(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withTemplates(cmd, func(ctx context.Context, repo repository.TemplateRepo) error {
		item, err := repo.FindByID(ctx, id, organizationID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("could not find notification template with id %s", id)
		}
		return writeTemplate(cmd.OutOrStdout(), item)
	})
}

func newTemplatesTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trigger <identifier>",
		Short:   "Find the template a trigger identifier starts",
		Args:    cobra.ExactArgs(1),
		Example: `  notifydal templates trigger order-shipped --env 64b7f0c2a1e4d3b2c1a09f8f`,
		RunE:    runTemplatesTrigger,
	}

	cmd.Flags().StringVar(&environmentID, "env", "", "environment id")
	_ = cmd.MarkFlagRequired("env")

	return cmd
}

func runTemplatesTrigger(cmd *cobra.Command, args []string) error {
	identifier := args[0]
	return withTemplates(cmd, func(ctx context.Context, repo repository.TemplateRepo) error {
		item, err := repo.FindByTriggerIdentifier(ctx, environmentID, identifier)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("could not find notification template with trigger %s", identifier)
		}
		return writeTemplate(cmd.OutOrStdout(), item)
	})
}

func newTemplatesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a template",
		Long: `Mark a template as deleted. The document stays in storage and can still
be read with "templates deleted".`,
		Args:    cobra.ExactArgs(1),
		Example: `  notifydal templates delete 64b7f0c2a1e4d3b2c1a09f90`,
		RunE:    runTemplatesDelete,
	}
	return cmd
}

func runTemplatesDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withTemplates(cmd, func(ctx context.Context, repo repository.TemplateRepo) error {
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		if getOutputFormat() == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]string{"id": id, "status": "deleted"})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Template %s deleted\n", id)
		return nil
	})
}

func newTemplatesDeletedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deleted <id>",
		Short:   "Show a soft-deleted template",
		Args:    cobra.ExactArgs(1),
		Example: `  notifydal templates deleted 64b7f0c2a1e4d3b2c1a09f90 --env 64b7f0c2a1e4d3b2c1a09f8f`,
		RunE:    runTemplatesDeleted,
	}

	cmd.Flags().StringVar(&environmentID, "env", "", "only match templates in this environment")

	return cmd
}

func runTemplatesDeleted(cmd *cobra.Command, args []string) error {
	id := args[0]
	oid, err := models.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: %s", repository.ErrInvalidID, id)
	}
	filter := mongodb.Filter{"_id": oid}
	if environmentID != "" {
		envID, err := models.ParseID(environmentID)
		if err != nil {
			return fmt.Errorf("%w: %s", repository.ErrInvalidID, environmentID)
		}
		filter["_environmentId"] = envID
	}

	return withTemplates(cmd, func(ctx context.Context, repo repository.TemplateRepo) error {
		item, err := repo.FindDeleted(ctx, filter)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("could not find deleted notification template with id %s", id)
		}
		return writeTemplate(cmd.OutOrStdout(), item)
	})
}

// withTemplates opens storage for the duration of fn.
func withTemplates(cmd *cobra.Command, fn func(ctx context.Context, repo repository.TemplateRepo) error) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.Log, true)

	conn, err := openConnection(cmd, cfg, logger.Logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(cmd.Context())); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = fn(cmd.Context(), conn.Templates())
	if errors.Is(err, repository.ErrInvalidID) && isVerbose() {
		printError(cmd, "ids must be 24 character hex object ids")
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeTemplateTable(w io.Writer, items []models.NotificationTemplate) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tDRAFT\tTRIGGERS\tSTEPS\tGROUP")
	for _, item := range items {
		group := ""
		if item.NotificationGroup != nil {
			group = item.NotificationGroup.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\t%d\t%s\n",
			item.ID.Hex(), item.Name, item.Active, item.Draft,
			triggerIdentifiers(item.Triggers), len(item.Steps), group)
	}
	return tw.Flush()
}

func writeTemplate(w io.Writer, item *models.NotificationTemplate) error {
	if getOutputFormat() == "json" {
		return writeJSON(w, item)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", item.ID.Hex())
	fmt.Fprintf(tw, "Name:\t%s\n", item.Name)
	fmt.Fprintf(tw, "Active:\t%t\n", item.Active)
	fmt.Fprintf(tw, "Draft:\t%t\n", item.Draft)
	fmt.Fprintf(tw, "Organization:\t%s\n", item.OrganizationID.Hex())
	fmt.Fprintf(tw, "Environment:\t%s\n", item.EnvironmentID.Hex())
	fmt.Fprintf(tw, "Triggers:\t%s\n", triggerIdentifiers(item.Triggers))
	if item.Deleted {
		fmt.Fprintf(tw, "Deleted:\t%s\n", formatDeletedAt(item.DeletedAt))
	}
	for i, step := range item.Steps {
		content := "<missing>"
		if step.Template != nil {
			content = step.Template.Type + ": " + step.Template.Content
		}
		fmt.Fprintf(tw, "Step %d:\t%s\n", i+1, content)
	}
	return tw.Flush()
}

func triggerIdentifiers(triggers []models.NotificationTrigger) string {
	ids := make([]string, 0, len(triggers))
	for _, t := range triggers {
		ids = append(ids, t.Identifier)
	}
	return strings.Join(ids, ",")
}

func formatDeletedAt(at *time.Time) string {
	if at == nil || at.IsZero() {
		return "yes"
	}
	return at.UTC().Format(time.RFC3339)
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	audithandler "avd/internal/audit/handler"
	auditservice "avd/internal/audit/service"
	"avd/internal/platform/postgres"
	"avd/pkg/platform/audit"
	auditpostgres "avd/pkg/platform/audit/store/postgres"
)

var errNoDatabase = errors.New("audit queries need a database url (DATABASE_URL or database.url)")

type auditListOptions struct {
	actorID    int64
	actions    []string
	resource   string
	resourceID string
	success    string
	from       string
	to         string
	limit      int
	offset     int
}

var auditOpts auditListOptions

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, newest first",
	Example: `  avd audit list --resource employees --resource-id 42
  avd audit list --action employees.delete --success=false --from 2024-01-01T00:00:00Z`,
	RunE: runAuditList,
}

func init() {
	f := auditListCmd.Flags()
	f.Int64Var(&auditOpts.actorID, "actor-id", 0, "only entries by this user")
	f.StringArrayVar(&auditOpts.actions, "action", nil, "only this action (repeatable)")
	f.StringVar(&auditOpts.resource, "resource", "", "resource type, e.g. employees")
	f.StringVar(&auditOpts.resourceID, "resource-id", "", "resource identifier")
	f.StringVar(&auditOpts.success, "success", "", "true or false")
	f.StringVar(&auditOpts.from, "from", "", "RFC 3339 lower bound")
	f.StringVar(&auditOpts.to, "to", "", "RFC 3339 upper bound")
	f.IntVar(&auditOpts.limit, "limit", audit.DefaultListLimit, "maximum entries")
	f.IntVar(&auditOpts.offset, "offset", 0, "entries to skip")

	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}

// query renders the flags in the HTTP query format so both surfaces share
// one parser.
func (o auditListOptions) query() url.Values {
	q := url.Values{}
	if o.actorID != 0 {
		q.Set("actor_id", strconv.FormatInt(o.actorID, 10))
	}
	for _, a := range o.actions {
		q.Add("action", a)
	}
	set := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	set("resource", o.resource)
	set("resource_id", o.resourceID)
	set("success", o.success)
	set("from", o.from)
	set("to", o.to)
	q.Set("limit", strconv.Itoa(o.limit))
	q.Set("offset", strconv.Itoa(o.offset))
	return q
}

func runAuditList(cmd *cobra.Command, _ []string) error {
	filter, err := audithandler.ParseFilter(auditOpts.query())
	if err != nil {
		printError("invalid filter", err)
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		printError("load config", err)
		return err
	}
	if cfg.Database.URL == "" {
		printError("audit list", errNoDatabase)
		return errNoDatabase
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		printError("connect", err)
		return err
	}
	defer db.Close()

	reader, err := auditservice.New(auditpostgres.New(db), auditservice.WithLogger(newLogger(cfg)))
	if err != nil {
		return err
	}
	return listEntries(ctx, reader, filter, cmd.OutOrStdout())
}

func listEntries(ctx context.Context, reader audithandler.Reader, filter audit.Filter, out io.Writer) error {
	entries, err := reader.List(ctx, filter)
	if err != nil {
		printError("list audit entries", err)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	return nil
}

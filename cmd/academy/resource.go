package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/model"
	"github.com/dukerupert/academy/internal/render"
)

func init() {
	names := make([]string, 0, len(api.Specs))
	for name := range api.Specs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rootCmd.AddCommand(resourceCommand(api.Specs[name]))
	}
}

// resourceCommand builds the CRUD subcommands of one resource.
func resourceCommand(spec api.Spec) *cobra.Command {
	cmd := &cobra.Command{
		Use:     spec.Name,
		Short:   fmt.Sprintf("Manage %s entities (%s)", spec.Name, spec.Path),
		GroupID: "resources",
	}

	var q model.Query
	var order string
	list := &cobra.Command{
		Use:   "list",
		Short: "List one page of " + spec.Name + " entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Order = model.SortOrder(order)
			return runEntity(cmd, spec.Name, func(ctx context.Context, e *entity) (any, error) {
				return e.list(ctx, q)
			})
		},
	}
	list.Flags().IntVar(&q.Page, "page", 0, "page number")
	list.Flags().IntVar(&q.Limit, "limit", 0, "page size")
	list.Flags().StringVar(&q.Sort, "sort", "", "sort field")
	list.Flags().StringVar(&order, "order", "", "asc or desc")
	list.Flags().StringToStringVar(&q.Filters, "filter", nil, "filter as key=value, repeatable")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + spec.Name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntity(cmd, spec.Name, func(ctx context.Context, e *entity) (any, error) {
				return e.get(ctx, args[0])
			})
		},
	}

	var createJSON string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a " + spec.Name + " from JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd.InOrStdin(), createJSON)
			if err != nil {
				return err
			}
			return runEntity(cmd, spec.Name, func(ctx context.Context, e *entity) (any, error) {
				return e.create(ctx, raw)
			})
		},
	}
	create.Flags().StringVar(&createJSON, "json", "-", "JSON body, @file, or - for stdin")

	var patchJSON string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Apply a partial JSON update to a " + spec.Name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd.InOrStdin(), patchJSON)
			if err != nil {
				return err
			}
			var patch model.Patch
			if err := json.Unmarshal(raw, &patch); err != nil {
				return fmt.Errorf("decode patch: %w", err)
			}
			return runEntity(cmd, spec.Name, func(ctx context.Context, e *entity) (any, error) {
				return e.update(ctx, args[0], patch)
			})
		},
	}
	update.Flags().StringVar(&patchJSON, "json", "-", "JSON patch, @file, or - for stdin")

	status := &cobra.Command{
		Use:       "status <id> <status>",
		Short:     "Change the status of a " + spec.Name,
		Args:      cobra.ExactArgs(2),
		ValidArgs: spec.Statuses,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntity(cmd, spec.Name, func(ctx context.Context, e *entity) (any, error) {
				return e.status(ctx, args[0], args[1])
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + spec.Name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntity(cmd, spec.Name, func(ctx context.Context, e *entity) (any, error) {
				if err := e.remove(ctx, args[0]); err != nil {
					return nil, err
				}
				return map[string]string{"deleted": args[0]}, nil
			})
		},
	}

	cmd.AddCommand(list, get, create, update, status, del)
	return cmd
}

// runEntity builds the resource's container, runs op and prints its result.
func runEntity(cmd *cobra.Command, name string, op func(ctx context.Context, e *entity) (any, error)) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	db, cache, _, err := openCache()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	e := entities(client, cache, logger)[name]
	defer e.close()

	ctx, cancel := commandContext(cmd)
	defer cancel()
	v, err := op(ctx, e)
	if err != nil {
		return err
	}
	return render.JSON(cmd.OutOrStdout(), v)
}

// readPayload resolves a --json value: inline JSON, @path, or - for stdin.
func readPayload(stdin io.Reader, arg string) ([]byte, error) {
	var raw []byte
	var err error
	switch {
	case arg == "-":
		raw, err = io.ReadAll(stdin)
	case len(arg) > 1 && arg[0] == '@':
		raw, err = os.ReadFile(arg[1:])
	default:
		raw = []byte(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if !json.Valid(raw) {
		return nil, errors.New("payload is not valid JSON")
	}
	return raw, nil
}

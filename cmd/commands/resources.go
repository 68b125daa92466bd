/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/phuonguno98/netbackup/internal/api"
	"github.com/phuonguno98/netbackup/internal/table"
	"github.com/phuonguno98/netbackup/internal/views"
)

// service is the CRUD surface of an API collection.
type service[T any, In any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id string, in In) (T, error)
	Delete(ctx context.Context, id string) error
}

// resource describes one collection and builds its list, show, create,
// update and delete commands.
type resource[T table.Row, In any] struct {
	name     string // plural, used as command name
	singular string
	aliases  []string
	idName   string // placeholder for the id argument

	service func(*api.Client) service[T, In]
	columns func(ctx context.Context, a *app) ([]table.Column[T], error)
	label   func(T) string

	// key is the id used in API paths. Defaults to RowID.
	key func(T) string
	// toInput seeds an update payload from the current record.
	toInput func(T) In
	flags   func(fs *pflag.FlagSet)
	apply   func(fs *pflag.FlagSet, in *In) error
	// finish runs after flags were applied, e.g. to prompt for secrets.
	finish func(in *In, creating bool) error

	// list replaces the plain List call when set.
	list      func(ctx context.Context, a *app, fs *pflag.FlagSet) ([]T, error)
	listFlags func(fs *pflag.FlagSet)

	view   views.Action
	modify views.Action
}

func (r *resource[T, In]) keyOf(row T) string {
	if r.key != nil {
		return r.key(row)
	}
	return row.RowID()
}

func (r *resource[T, In]) find(rows []T, id string) (T, bool) {
	for _, row := range rows {
		if r.keyOf(row) == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// command returns the parent command with all subcommands attached.
func (r *resource[T, In]) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     r.name,
		Aliases: r.aliases,
		Short:   "Manage " + r.name,
	}
	cmd.AddCommand(r.listCmd(), r.showCmd(), r.createCmd(), r.updateCmd(), r.deleteCmd())
	return cmd
}

func (r *resource[T, In]) listCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List " + r.name,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := requireAction(r.view)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			cols, err := r.columns(ctx, a)
			if err != nil {
				return a.check(err)
			}
			fetch := func(ctx context.Context) ([]T, error) {
				if r.list != nil {
					return r.list(ctx, a, cmd.Flags())
				}
				return r.service(a.client).List(ctx)
			}
			return a.check(showTable(ctx, cmd.OutOrStdout(), cols, fetch, opts))
		},
	}
	addListFlags(cmd, &opts)
	if r.listFlags != nil {
		r.listFlags(cmd.Flags())
	}
	return cmd
}

func (r *resource[T, In]) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show " + r.idName,
		Aliases: []string{"get"},
		Short:   "Show one " + r.singular,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireAction(r.view)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			row, err := r.service(a.client).Get(ctx, args[0])
			if err != nil {
				return a.check(err)
			}
			return a.check(r.show(ctx, a, cmd, row))
		},
	}
}

func (r *resource[T, In]) show(ctx context.Context, a *app, cmd *cobra.Command, row T) error {
	cols, err := r.columns(ctx, a)
	if err != nil {
		return err
	}
	return showRecord(cmd.OutOrStdout(), cols, row)
}

func (r *resource[T, In]) createCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + r.singular,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in In
			if err := r.readPayload(cmd.Flags(), file, &in, true); err != nil {
				return err
			}
			a, err := requireAction(r.modify)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			created, err := r.service(a.client).Create(ctx, in)
			if err != nil {
				return a.check(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Created %s %s\n", r.singular, r.keyOf(created))
			return a.check(r.show(ctx, a, cmd, created))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the "+r.singular+" from a YAML file")
	r.flags(cmd.Flags())
	return cmd
}

func (r *resource[T, In]) updateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "update " + r.idName,
		Aliases: []string{"edit"},
		Short:   "Update a " + r.singular,
		Long: "Update a " + r.singular + ". Fields not given with flags or in --file\n" +
			"keep their current value.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := requireAction(r.modify)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			svc := r.service(a.client)
			current, err := svc.Get(ctx, args[0])
			if err != nil {
				return a.check(err)
			}
			in := r.toInput(current)
			if err := r.readPayload(cmd.Flags(), file, &in, false); err != nil {
				return err
			}

			updated, err := svc.Update(ctx, args[0], in)
			if err != nil {
				return a.check(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Updated %s %s\n", r.singular, args[0])
			return a.check(r.show(ctx, a, cmd, updated))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read changes from a YAML file")
	r.flags(cmd.Flags())
	return cmd
}

// readPayload layers the YAML file, then the changed flags, onto in.
func (r *resource[T, In]) readPayload(fs *pflag.FlagSet, file string, in *In, creating bool) error {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, in); err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}
	}
	if err := r.apply(fs, in); err != nil {
		return err
	}
	if r.finish != nil {
		return r.finish(in, creating)
	}
	return nil
}

func (r *resource[T, In]) deleteCmd() *cobra.Command {
	var (
		pick bool
		yes  bool
		page int
	)
	cmd := &cobra.Command{
		Use:     "delete [" + r.idName + "...]",
		Aliases: []string{"rm"},
		Short:   "Delete one or more " + r.name,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !pick {
				return fmt.Errorf("give at least one %s or use --select", r.idName)
			}
			a, err := requireAction(r.modify)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			svc := r.service(a.client)
			rows, err := svc.List(ctx)
			if err != nil {
				return a.check(err)
			}

			var (
				failed []error
				bar    *progressbar.ProgressBar
			)
			t := table.New(nil, rows, table.Options[T]{
				Selectable: true,
				Actions:    true,
				PageSize:   cfg.PageSize,
				OnDelete: func(row T) {
					if a.expired.Load() {
						return
					}
					if err := svc.Delete(ctx, r.keyOf(row)); err != nil {
						failed = append(failed, fmt.Errorf("%s %s: %w", r.singular, r.keyOf(row), err))
					}
					if bar != nil {
						_ = bar.Add(1)
					}
				},
			})

			if pick {
				t.ChangePage(page - 1)
				if err := r.pickRows(t); err != nil {
					return err
				}
			}
			for _, id := range args {
				row, ok := r.find(rows, id)
				if !ok {
					return fmt.Errorf("%s %q: %w", r.singular, id, table.ErrRowNotFound)
				}
				if !t.IsSelected(row.RowID()) {
					t.ToggleSelection(row.RowID())
				}
			}

			targets := t.SelectedRows()
			if len(targets) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "Nothing selected")
				return nil
			}
			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete %d %s?", len(targets), r.noun(len(targets))))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Aborted")
					return nil
				}
			}

			if len(targets) > 1 {
				bar = progressbar.Default(int64(len(targets)), "Deleting "+r.name)
			}
			for _, row := range targets {
				if err := t.Delete(row.RowID()); err != nil {
					return err
				}
			}
			if a.expired.Load() {
				return errSessionExpired
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d %s\n", len(targets)-len(failed), len(targets), r.noun(len(targets)))
			return errors.Join(failed...)
		},
	}
	cmd.Flags().BoolVarP(&pick, "select", "s", false, "Pick the "+r.name+" to delete from a list")
	cmd.Flags().IntVar(&page, "page", 1, "Page offered by --select")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// pickRows offers the current page of t for multi-selection.
func (r *resource[T, In]) pickRows(t *table.Table[T]) error {
	if !interactive() {
		return errors.New("--select needs a terminal")
	}
	rows := t.Page()
	if len(rows) == 0 {
		return fmt.Errorf("no %s on page %d", r.name, t.PageIndex()+1)
	}
	options := make([]string, len(rows))
	for i, row := range rows {
		options[i] = r.label(row)
	}

	var picked []int
	prompt := &survey.MultiSelect{
		Message:  fmt.Sprintf("Select %s to delete (page %d of %d):", r.name, t.PageIndex()+1, t.PageCount()),
		Options:  options,
		PageSize: len(options),
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return err
	}
	for _, i := range picked {
		t.ToggleSelection(rows[i].RowID())
	}
	return nil
}

func (r *resource[T, In]) noun(n int) string {
	if n == 1 {
		return r.singular
	}
	return r.name
}

// interactive reports whether prompts can be shown.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func confirm(message string) (bool, error) {
	if !interactive() {
		return false, errors.New("confirmation needs a terminal, pass --yes")
	}
	ok := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// setFlag copies a changed string flag into dst.
func setFlag[S ~string](fs *pflag.FlagSet, name string, dst *S) {
	if !fs.Changed(name) {
		return
	}
	v, _ := fs.GetString(name)
	*dst = S(v)
}

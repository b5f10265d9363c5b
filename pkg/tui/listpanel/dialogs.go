package listpanel

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/darksworm/mongonaut/pkg/api"
	"github.com/darksworm/mongonaut/pkg/model"
	"github.com/darksworm/mongonaut/pkg/tui/confirm"
)

// Gateway is what a panel needs from the entity service
type Gateway interface {
	List(ctx context.Context, connectionID string, kind model.EntityKind, database string) ([]model.Entity, error)
	Create(ctx context.Context, target model.Entity, opts api.CreateOptions) (api.Result, error)
	Drop(ctx context.Context, target model.Entity) (api.Result, error)
}

// CreateDialog builds the create-form options for an entity of kind under
// database. onSuccess is the refresh path of whoever owns the list.
func CreateDialog(gw Gateway, kind model.EntityKind, connectionID, database string, onSuccess func() tea.Cmd) confirm.Options {
	fields := []confirm.Field{{
		Name:        "name",
		Label:       "Name",
		Placeholder: kind.Label() + " name",
		Rules: []confirm.Rule{
			confirm.Required(kind.Label() + " name"),
			confirm.EntityName(kind, database),
		},
	}}
	if kind == model.KindCollection {
		fields = append(fields,
			confirm.Field{Name: "capped", Label: "Capped", Placeholder: "y/n", Default: "n",
				Rules: []confirm.Rule{confirm.YesNo("Capped")}},
			confirm.Field{Name: "size", Label: "Size (bytes)", Placeholder: "required when capped",
				Rules: []confirm.Rule{
					confirm.RequiredWhen("capped", confirm.Required("Size")),
					confirm.Integer("Size", 1, 1<<50),
				}},
			confirm.Field{Name: "max", Label: "Max documents", Placeholder: "optional",
				Rules: []confirm.Rule{confirm.Integer("Max documents", 0, 1<<50)}},
		)
	}

	title := "Create " + kind.Label()
	if database != "" && kind.IsChild() {
		title += " in " + database
	}

	return confirm.Options{
		Mode:   model.ModeCreate,
		Title:  title,
		Fields: fields,
		Submit: func(ctx context.Context, values confirm.Values) (api.Result, error) {
			target := model.Entity{Kind: kind, Name: values.Get("name"), ConnectionID: connectionID}
			if kind.IsChild() {
				target.Database = database
			}
			return gw.Create(ctx, target, api.CreateOptions{
				Capped: values.Bool("capped"),
				Size:   values.Int64("size"),
				Max:    values.Int64("max"),
			})
		},
		OnSuccess: onSuccess,
		SuccessMessage: func(values confirm.Values) string {
			return fmt.Sprintf("%s %s was successfully created", kind.Label(), values.Get("name"))
		},
	}
}

// DeleteDialog builds the destructive-confirm options for target
func DeleteDialog(gw Gateway, target model.Entity, onSuccess func() tea.Cmd) confirm.Options {
	prompt := fmt.Sprintf("Drop %s %s? This cannot be undone.", target.Kind, target.Path())
	if target.Kind == model.KindDatabase {
		prompt = fmt.Sprintf("Drop database %s and everything in it? This cannot be undone.", target.Name)
	}
	return confirm.Options{
		Mode:   model.ModeDelete,
		Title:  "Drop " + target.Kind.Label(),
		Prompt: prompt,
		Target: &target,
		Submit: func(ctx context.Context, _ confirm.Values) (api.Result, error) {
			return gw.Drop(ctx, target)
		},
		OnSuccess: onSuccess,
		SuccessMessage: func(confirm.Values) string {
			return fmt.Sprintf("%s %s was dropped", target.Kind.Label(), target.Name)
		},
	}
}

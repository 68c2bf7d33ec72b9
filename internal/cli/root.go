// Package cli is the terminal front end of the dlink client.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/config"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/navigation"
	"github.com/vadimbarashkov/dlink/internal/session"
)

// env holds the components shared by every command. It is populated before
// a command runs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	term    *Terminal
	session *session.Session
	nav     *navigation.Navigator
	client  *api.Client
	links   *collection.Collection

	linkOpts []collection.Option
}

// NewRootCommand builds the dlink command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}

	var configPath string

	root := &cobra.Command{
		Use:           "dlink",
		Short:         "Shorten URLs and manage your short links",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd, configPath)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file (defaults to $CONFIG_PATH)")

	root.AddCommand(
		newShortenCommand(e),
		newLoginCommand(e),
		newRegisterCommand(e),
		newLogoutCommand(e),
		newLinksCommand(e),
		newBrowseCommand(e),
	)

	return root
}

func (e *env) setup(cmd *cobra.Command, configPath string) error {
	const op = "cli.env.setup"

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadEnv()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sort, err := entity.ParseSortKey(cfg.DefaultSort)
	if err != nil {
		return fmt.Errorf("%s: invalid default_sort %q: %w", op, cfg.DefaultSort, err)
	}

	e.cfg = cfg
	e.logger = cfg.Log.NewLogger("dlink", cmd.ErrOrStderr()).Logger
	e.term = NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())

	if cfg.APIURL == "" {
		e.logger.Warn("api_url is not set")
	}

	e.session = session.New(session.NewFileStore(cfg.Session.Path, cfg.Session.Key), e.logger)

	start := navigation.To(navigation.Landing)
	if e.session.Authenticated() {
		start = navigation.To(navigation.Home)
	}
	e.nav = navigation.NewNavigator(start, e.logger)

	e.client = api.New(cfg.APIURL, e.session,
		api.WithLogger(e.logger),
		api.WithUnauthorizedHandler(func() {
			e.nav.Navigate(navigation.To(navigation.Landing))
		}),
	)

	opts := []collection.Option{
		collection.WithPageSize(cfg.PageSize),
		collection.WithSort(sort),
		collection.WithLogger(e.logger),
	}
	if cfg.Cache.Enabled {
		cache, err := collection.NewPageCache(cfg.Cache.MaxPages)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, collection.WithCache(cache, cfg.Cache.TTL))
	}
	e.linkOpts = opts
	e.links = collection.New(e.client, opts...)

	return nil
}

// openLinks replaces the link collection with one built from the configured
// options plus extra.
func (e *env) openLinks(extra ...collection.Option) *collection.Collection {
	opts := append(append([]collection.Option{}, e.linkOpts...), extra...)
	e.links = collection.New(e.client, opts...)
	return e.links
}

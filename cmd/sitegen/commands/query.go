package commands

import (
	"errors"
	"os"

	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/query"
	"git.home.luguber.info/inful/sitegen/internal/scan"
)

// QueryCmd implements the 'query' command.
type QueryCmd struct {
	Format  string `short:"f" help:"Output format" default:"tree" enum:"tree,url,json"`
	Sort    string `short:"s" help:"Sort order" default:"path" enum:"path,type,lastmod,lastbuild"`
	Max     int    `short:"n" help:"Limit the number of entries shown (0 = all)"`
	Reindex bool   `help:"Scan the filesystem instead of reading the cached index"`
}

func (q *QueryCmd) Run(_ *Global, root *CLI) error {
	sc, err := loadSite(root)
	if err != nil {
		return err
	}

	var ix *index.BuildIndex
	if q.Reindex {
		live, err := scan.NewScanner(sc.layout).Scan()
		if err != nil && !errors.Is(err, scan.ErrNoSourceRoot) {
			return err
		}
		ix = query.Materialize(live)
	} else {
		ix = sc.store.Load()
	}

	return query.Render(os.Stdout, ix, query.Options{
		Format: query.Format(q.Format),
		Sort:   query.Sort(q.Sort),
		Max:    q.Max,
	})
}

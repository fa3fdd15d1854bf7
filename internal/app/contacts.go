package app

import (
	"context"
	"fmt"
	"io"

	"github.com/bgunnarsson/tablestore/internal/config"
	"github.com/bgunnarsson/tablestore/internal/db"
	"github.com/bgunnarsson/tablestore/internal/logging"
	"github.com/bgunnarsson/tablestore/internal/print"
	"github.com/bgunnarsson/tablestore/internal/store"
)

func contactsCreateStmt(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
	fName   VARCHAR(5000),
	lName   VARCHAR(5000),
	address VARCHAR(5000),
	city    VARCHAR(5000),
	state   VARCHAR(5000),
	zipCode integer)`, table)
}

// RunContacts adds three contacts, updates one, deletes another, and prints
// the table after each stage. Failed steps are logged and the demo goes on.
func RunContacts(ctx context.Context, cfg *config.Config, w io.Writer) error {
	log := logging.WithFields(ctx, "demo", "contacts")

	s, err := openStore(ctx, cfg, contactsCreateStmt(cfg.Table.Name), cfg.Table.Drop, log)
	if err != nil {
		return err
	}
	defer s.Close()

	add1 := db.Row{"Joanna", "Strange", "1234 main st.", "Stockton", "CA", 92880}
	add2 := db.Row{"John", "Smith", "1234 main st.", "Eastvale", "CA", 92880}
	add3 := db.Row{"Jane", "Butts", "1234 main st.", "Eastvale", "CA", 92880}

	stage(w, "Adding records")
	for _, r := range []db.Row{add1, add2, add3} {
		_ = s.Insert(ctx, r)
	}
	dump(ctx, w, s)

	stage(w, "Updating records")
	newAdd1 := db.Row{"Patty", "Smith", "1234 main st.", "Eastvale", "CA", 92880}
	_ = s.Update(ctx, add1, newAdd1)
	dump(ctx, w, s)

	stage(w, "Delete record")
	_ = s.Delete(ctx, add2)
	dump(ctx, w, s)

	return nil
}

func stage(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
}

func dump(ctx context.Context, w io.Writer, s *store.Store) {
	rows, _ := s.GetAllRows(ctx)
	print.RenderTable(w, &db.Rows{Columns: s.Columns(), Data: rows}, print.Options{MaxWidth: 40, Count: true})
}

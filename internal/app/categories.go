package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/category"
	"github.com/kr4t0z/chrono-server/internal/output"
	"github.com/kr4t0z/chrono-server/internal/store"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Manage app and domain categories",
	Long: `List and edit the mappings used to categorize sessions. Apps are
matched by name or bundle ID, browser tabs by domain. Domains may use a
leading wildcard such as "*.atlassian.net".

Categories: development, design, communication, research, distraction, other.

Examples:
  chrono categories list
  chrono categories set app Cursor development
  chrono categories set bundle com.tinyspeck.slackmacgap communication
  chrono categories set domain youtube.com distraction
  chrono categories import categories.yaml`,
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List category mappings",
	Args:  cobra.NoArgs,
	RunE:  runCategoriesList,
}

var categoriesSetCmd = &cobra.Command{
	Use:       "set <app|bundle|domain> <value> <category>",
	Short:     "Create or update a category mapping",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{"app", "bundle", "domain"},
	RunE:      runCategoriesSet,
}

var categoriesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Load category mappings from a YAML file",
	Long: `Load category mappings from a YAML file of the form:

  apps:
    - app_name: Cursor
      category: development
    - bundle_id: com.spotify.client
      category: distraction
  domains:
    - domain: github.com
      category: development
    - domain: "*.atlassian.net"
      category: development`,
	Args: cobra.ExactArgs(1),
	RunE: runCategoriesImport,
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd, categoriesSetCmd, categoriesImportCmd)
	rootCmd.AddCommand(categoriesCmd)
}

// categoryFile is the YAML layout accepted by "categories import".
type categoryFile struct {
	Apps    []category.AppRule    `yaml:"apps"`
	Domains []category.DomainRule `yaml:"domains"`
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := context.Background()
	apps, err := e.db.ListAppCategories(ctx)
	if err != nil {
		return err
	}
	domains, err := e.db.ListDomainCategories(ctx)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(categoryFile{Apps: apps, Domains: domains})
	}

	fmt.Println(output.Section(fmt.Sprintf("Apps (%d)", len(apps))))
	fmt.Println()
	tbl := output.NewTable("App", "Bundle ID", "Category")
	for _, r := range apps {
		tbl.AddRow(r.AppName, r.BundleID, output.Category(activity.Category(r.Category)))
	}
	tbl.Print()

	fmt.Println(output.Section(fmt.Sprintf("Domains (%d)", len(domains))))
	fmt.Println()
	tbl = output.NewTable("Domain", "Category")
	for _, r := range domains {
		d := r.Domain
		if r.Pattern != "" {
			d = r.Pattern
		}
		tbl.AddRow(d, output.Category(activity.Category(r.Category)))
	}
	tbl.Print()
	return nil
}

func runCategoriesSet(cmd *cobra.Command, args []string) error {
	kind, value, cat := strings.ToLower(args[0]), args[1], args[2]
	if _, ok := activity.ParseCategory(cat); !ok {
		return fmt.Errorf("unknown category %q", cat)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	if err := setCategory(context.Background(), e.db, kind, value, cat); err != nil {
		return err
	}
	fmt.Printf("%s %s → %s\n", kind, value, output.Category(activity.Category(strings.ToLower(cat))))
	return nil
}

func setCategory(ctx context.Context, db *store.DB, kind, value, cat string) error {
	switch kind {
	case "app":
		return db.SetAppCategory(ctx, category.AppRule{AppName: value, Category: cat})
	case "bundle":
		return db.SetAppCategory(ctx, category.AppRule{BundleID: value, Category: cat})
	case "domain":
		return db.SetDomainCategory(ctx, category.DomainRule{Domain: value, Category: cat})
	default:
		return fmt.Errorf("unknown mapping kind %q (want app, bundle or domain)", kind)
	}
}

func runCategoriesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rules, err := readCategoryFile(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := context.Background()
	for _, r := range rules.Apps {
		if err := e.db.SetAppCategory(ctx, r); err != nil {
			return fmt.Errorf("app %q: %w", r.AppName+r.BundleID, err)
		}
	}
	for _, r := range rules.Domains {
		if err := e.db.SetDomainCategory(ctx, r); err != nil {
			return fmt.Errorf("domain %q: %w", r.Domain+r.Pattern, err)
		}
	}
	fmt.Printf("Imported %d app and %d domain mappings\n", len(rules.Apps), len(rules.Domains))
	return nil
}

// readCategoryFile decodes and validates a category mapping file.
func readCategoryFile(r io.Reader) (*categoryFile, error) {
	var rules categoryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && err != io.EOF {
		return nil, err
	}
	for i, a := range rules.Apps {
		if _, ok := activity.ParseCategory(a.Category); !ok {
			return nil, fmt.Errorf("apps[%d]: unknown category %q", i, a.Category)
		}
	}
	for i, d := range rules.Domains {
		if _, ok := activity.ParseCategory(d.Category); !ok {
			return nil, fmt.Errorf("domains[%d]: unknown category %q", i, d.Category)
		}
	}
	return &rules, nil
}

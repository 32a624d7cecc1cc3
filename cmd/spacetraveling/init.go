package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/eringen/spacetraveling/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName   string
	Repository string
}

var initRepository string

var initCmd = &cobra.Command{
	Use:   "init <dir>",
	Short: "Write a starter config.yaml and .env.example",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(args[0], initRepository)
	},
}

func init() {
	initCmd.Flags().StringVar(&initRepository, "repository", "your-repo", "Prismic repository name")
}

func runInit(dir, repository string) error {
	data := scaffoldData{
		SiteName:   toTitle(filepath.Base(dir)),
		Repository: repository,
	}
	root := "templates"

	return fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists", outPath)
		}

		src, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		fmt.Printf("  created %s\n", outPath)
		return nil
	})
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

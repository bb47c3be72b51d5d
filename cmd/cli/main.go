package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"genjigraph/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

var (
	baseURL string
	client  = &http.Client{Timeout: 15 * time.Second}
)

type lookupFlags struct {
	relatedCharacters bool
	relatedPoems      bool
	characterLimit    int
	poemLimit         int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "genji",
		Short:        "Query the Genji character graph API",
		SilenceUsage: true,
	}
	def := os.Getenv("GENJI_API")
	if def == "" {
		def = defaultBaseURL
	}
	root.PersistentFlags().StringVar(&baseURL, "api", def, "API base URL")

	root.AddCommand(newCharacterCmd(), newExportCmd())
	return root
}

func newCharacterCmd() *cobra.Command {
	var lf lookupFlags
	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a character with optional related characters and poems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := fetchCharacter(cmd.Context(), args[0], lf)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	show.Flags().BoolVar(&lf.relatedCharacters, "related-characters", false, "include related characters")
	show.Flags().BoolVar(&lf.relatedPoems, "related-poems", false, "include related poems")
	show.Flags().IntVar(&lf.characterLimit, "character-limit", 0, "cap on related character edges (0 = no cap)")
	show.Flags().IntVar(&lf.poemLimit, "poem-limit", 0, "cap on related poems (0 = no cap)")

	cmd := &cobra.Command{Use: "character", Short: "Character lookups"}
	cmd.AddCommand(show)
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		outPath   string
		poemLimit int
	)
	cmd := &cobra.Command{
		Use:       "export json|csv NAME",
		Short:     "Export a character's related poems",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"json", "csv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, name := args[0], args[1]
			if format != "json" && format != "csv" {
				return fmt.Errorf("unknown format %q, want json or csv", format)
			}

			data, err := fetchCharacter(cmd.Context(), name, lookupFlags{relatedPoems: true, poemLimit: poemLimit})
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = filepath.Join("data", slug(name)+"-poems."+format)
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			if err := writeExport(outPath, format, data.RelatedPoems); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d poems to %s\n", len(data.RelatedPoems), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output path (default data/<name>-poems.<format>)")
	cmd.Flags().IntVar(&poemLimit, "poem-limit", 0, "cap on exported poems (0 = no cap)")
	return cmd
}

func characterURL(base, name string, lf lookupFlags) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/characters/" + url.PathEscape(name))
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	qv := u.Query()
	if lf.relatedCharacters {
		qv.Set("includeRelatedCharacter", "true")
	}
	if lf.relatedPoems {
		qv.Set("includeRelatedPoem", "true")
	}
	if lf.characterLimit > 0 {
		qv.Set("characterLimit", strconv.Itoa(lf.characterLimit))
	}
	if lf.poemLimit > 0 {
		qv.Set("poemLimit", strconv.Itoa(lf.poemLimit))
	}
	u.RawQuery = qv.Encode()
	return u.String(), nil
}

func fetchCharacter(ctx context.Context, name string, lf lookupFlags) (*models.CharacterData, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint, err := characterURL(baseURL, name, lf)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("character %q not found", name)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s failed: %s", endpoint, strings.TrimSpace(string(body)))
	}

	var data models.CharacterData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// writeExport writes poems to path. A failed close is reported since it can
// mean buffered data never reached disk.
func writeExport(path, format string, poems []models.RelatedPoem) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if format == "json" {
		return printJSON(f, poems)
	}
	return writePoemsCSV(f, poems)
}

func writePoemsCSV(w io.Writer, poems []models.RelatedPoem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pnum", "relationship", "chapter_num", "poem_num", "url"}); err != nil {
		return err
	}
	for _, p := range poems {
		u := ""
		if p.URL != nil {
			u = *p.URL
		}
		pnum, _ := p.Poem["pnum"].(string)
		if err := cw.Write([]string{pnum, p.Relationship, p.ChapterNum, p.PoemNum, u}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "character"
	}
	return out
}

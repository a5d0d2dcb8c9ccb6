package cmd

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/editor"
	"github.com/quocvuong92/zor/internal/parser"
)

func (app *App) newGenerateTestCmd() *cobra.Command {
	var framework, output string

	cmd := &cobra.Command{
		Use:     "generate_test <file>",
		Aliases: []string{"gentest", "generate-test"},
		Short:   "Generate unit tests for a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			source, rel, err := app.resolve(args[0])
			if err != nil {
				return err
			}
			content, err := os.ReadFile(source)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("file %s does not exist", args[0])
				}
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			if framework == "" {
				framework = defaultFramework(rel)
			}
			testRel := output
			if testRel == "" {
				testRel = testFilePath(rel)
			}
			testPath, testRel, err := app.resolve(testRel)
			if err != nil {
				return err
			}

			bundle, err := app.loadContext()
			if err != nil {
				return err
			}
			client, err := app.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			p := api.Prompt{Context: bundle.Render(), Text: generateTestPrompt(rel, string(content), framework)}
			res, err := app.exchange(ctx, client, "generate_test", rel+" ("+framework+")", bundle, p)
			if err != nil {
				return err
			}

			proposal, err := editor.NewProposal(testPath, parser.FirstCodeBlockOr(res.Text))
			if err != nil {
				return err
			}
			if !proposal.Exists {
				display.ShowInfo(fmt.Sprintf("Creating new test file at %s", testRel))
			}
			_, err = app.editor().Review(proposal)
			return err
		},
	}

	cmd.Flags().StringVarP(&framework, "framework", "f", "", "Test framework (default: chosen by file extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Test file path (default: next to the source file)")
	return cmd
}

// defaultFramework picks the conventional test framework for a source file
func defaultFramework(rel string) string {
	switch strings.ToLower(path.Ext(rel)) {
	case ".go":
		return "Go's testing package"
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return "jest"
	default:
		return "pytest"
	}
}

// testFilePath names the test file for a slash path source file
func testFilePath(rel string) string {
	dir, name := path.Split(rel)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	switch strings.ToLower(ext) {
	case ".go":
		return dir + base + "_test.go"
	case ".py":
		return dir + "test_" + name
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return dir + base + ".test" + ext
	default:
		return dir + "test_" + name
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/stockbox/backend/config"
	"github.com/stockbox/backend/internal/app"
	"github.com/stockbox/backend/internal/domain"
	"github.com/stockbox/backend/internal/usecase"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := cli.App{
		Name:  "restock",
		Usage: "run the grocery pipeline from the command line",
		Commands: []*cli.Command{{
			Name:  "run",
			Usage: "extract items from a photo, compare prices and compute a restock list",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "image",
					Aliases:  []string{"i"},
					Usage:    "path to the grocery or pantry photo",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "mime",
					Usage: "image MIME type; detected from the file when empty",
				},
				&cli.StringSliceFlag{
					Name:  "target",
					Usage: "target inventory entry, e.g. \"milk 3 gallons\" (repeatable)",
				},
				&cli.StringSliceFlag{
					Name:  "fallback",
					Usage: "fallback item used when nothing is extracted (repeatable)",
				},
				&cli.Int64Flag{
					Name:  "list-id",
					Usage: "inventory list whose items form the target and which receives the restock list",
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "output file; defaults to restock-<image name>.json",
				},
			},
			Action: withApp(runRestock),
		}, {
			Name:  "plan",
			Usage: "create a monthly shopping plan from a description",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "text",
					Usage:    "household description and preferences",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "output file; defaults to stdout",
				},
			},
			Action: withApp(runPlan),
		}},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withApp(f func(*app.App, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		a, err := app.New(ctx.Context, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		return f(a, ctx)
	}
}

func runRestock(a *app.App, ctx *cli.Context) error {
	path := ctx.String("image")
	image, err := readImage(path, ctx.String("mime"))
	if err != nil {
		return err
	}

	result, err := a.Pipeline.RunImageToRestock(ctx.Context, usecase.RestockRequest{
		Image:     image,
		ImageName: filepath.Base(path),
		Target:    ctx.StringSlice("target"),
		Fallback:  ctx.StringSlice("fallback"),
		ListID:    ctx.Int64("list-id"),
	})
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	out := outputPath(path, ctx.String("out"))
	if err := writeJSON(out, result); err != nil {
		return err
	}
	for _, stage := range result.Stages {
		log.Printf("%s: %s %s", stage.Name, stage.Status, stage.Error)
	}
	log.Printf("wrote %d restock entries to %s", len(result.RestockList), out)
	return nil
}

func runPlan(a *app.App, ctx *cli.Context) error {
	plan, err := a.Pipeline.CreatePlan(ctx.Context, ctx.String("text"), nil)
	if err != nil {
		return fmt.Errorf("creating plan: %w", err)
	}
	return writeJSON(ctx.String("out"), plan)
}

// readImage loads the image at path. An empty mimeType is taken from the file
// extension, then from the content.
func readImage(path, mimeType string) (*domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, mimeType)
	}
	return &domain.Image{MIMEType: mimeType, Data: data}, nil
}

// outputPath returns out, or restock-<slug of the image name>.json.
func outputPath(imagePath, out string) string {
	if out != "" {
		return out
	}
	name := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	s := slug.Make(name)
	if s == "" {
		s = "image"
	}
	return "restock-" + s + ".json"
}

// writeJSON writes v indented to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

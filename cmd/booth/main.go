package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"photobooth/internal/booth"
	"photobooth/internal/genai"
	"photobooth/internal/imaging"
	"photobooth/internal/infra"
	"photobooth/internal/mode"
	"photobooth/internal/storage"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "booth",
		Usage:   "Generative photo booth: run captured images through a transformation mode",
		Version: Version,
		Commands: []*cli.Command{
			modesCmd(),
			captureCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func modesCmd() *cli.Command {
	return &cli.Command{
		Name:  "modes",
		Usage: "List available transformation modes",
		Action: func(c *cli.Context) error {
			for _, md := range mode.All() {
				kind := ""
				switch {
				case md.IsLocal:
					kind = " (local)"
				case md.IsVideo:
					kind = " (video)"
				}
				fmt.Printf("%s  %-12s %s%s\n", md.Emoji, md.Key, md.Name, kind)
			}
			return nil
		},
	}
}

func captureCmd() *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Run one or more images through the booth pipeline",
		ArgsUsage: "IMAGE [IMAGE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: mode.Default().Key, Usage: "Transformation mode key"},
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Usage: "Prompt for the custom mode"},
			&cli.BoolFlag{Name: "gif", Usage: "Assemble the session GIF after all photos settle"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("capture: at least one image file is required", 1)
			}

			cfg, err := infra.LoadConfig()
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			logger := infra.NewLogger(cfg.AppEnv)

			session, err := newSession(cfg, &logger)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			if err := session.SetMode(c.String("mode")); err != nil {
				return cli.Exit(fmt.Sprintf("capture: %v", err), 1)
			}
			if prompt := c.String("prompt"); prompt != "" {
				session.SetCustomPrompt(prompt)
			}

			for _, path := range c.Args().Slice() {
				input, err := loadImage(path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("capture: %v", err), 1)
				}
				if _, err := session.CapturePhoto(c.Context, input); err != nil {
					return cli.Exit(fmt.Sprintf("capture: %v", err), 1)
				}
			}
			session.Wait()

			ready := 0
			for _, p := range session.Store().Photos() {
				if !p.IsBusy {
					ready++
				}
			}
			logger.Info().Int("requested", c.NArg()).Int("ready", ready).Msg("booth: session settled")

			if c.Bool("gif") {
				if err := session.BuildGif(c.Context); err != nil {
					return cli.Exit(fmt.Sprintf("capture: %v", err), 1)
				}
				if path := session.Store().Gif().ResultPath; path != "" {
					fmt.Println(path)
				}
			}
			return nil
		},
	}
}

func newSession(cfg *infra.Config, logger *infra.Logger) (*booth.Session, error) {
	client, err := genai.NewClient(genai.Options{
		APIKey:           cfg.GeminiAPIKey,
		BaseURL:          cfg.GeminiBaseURL,
		ImageModel:       cfg.ImageModel,
		VideoModel:       cfg.VideoModel,
		Logger:           logger,
		MaxAttempts:      cfg.RetryAttempts,
		BaseDelay:        cfg.RetryBaseDelay,
		AttemptTimeout:   cfg.AttemptTimeout,
		PollInterval:     cfg.VideoPollEvery,
		ImageConcurrency: int64(cfg.ImageConcurrency),
		VideoConcurrency: int64(cfg.VideoConcurrency),
	})
	if err != nil {
		return nil, err
	}

	files, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	return booth.NewSession(booth.NewStore(), client, files, logger), nil
}

// loadImage reads an image file and hands it to the pipeline the way the
// capture collaborator would: as a data URI.
func loadImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return imaging.EncodeDataURI(http.DetectContentType(data), data), nil
}

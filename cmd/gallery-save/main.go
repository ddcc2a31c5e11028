package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dfryer1193/savergallery/gallery/application"
	"github.com/dfryer1193/savergallery/gallery/domain"
	"github.com/dfryer1193/savergallery/gallery/persistence"
	"github.com/dfryer1193/savergallery/internal/config"
	"github.com/dfryer1193/savergallery/shared/db/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

// gallery-save stores one image or file into the gallery and prints the outcome map.
//
//	gallery-save --image shot.png --name shot --relative-path Pictures/Screens
//	gallery-save --file clip.mp4 --skip-if-exists
func main() {
	var (
		imagePath    = flag.StringP("image", "i", "", "image file to encode into the gallery")
		filePath     = flag.StringP("file", "f", "", "file to copy into the gallery")
		name         = flag.StringP("name", "n", "", "display name (defaults to the source file name)")
		extension    = flag.StringP("extension", "e", "", "image extension (defaults to the source extension)")
		relativePath = flag.StringP("relative-path", "r", "", "folder under the gallery root")
		quality      = flag.IntP("quality", "q", 100, "JPEG quality 0-100")
		skipIfExists = flag.Bool("skip-if-exists", false, "do nothing when the entry already exists")
		mode         = flag.String("mode", "", "storage mode: auto, scoped or legacy (overrides config)")
		verbose      = flag.BoolP("verbose", "v", false, "debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if (*imagePath == "") == (*filePath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --image or --file is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *mode != "" {
		cfg.Storage.Mode = *mode
	}

	dbCfg := sqlite.NewSQLiteConfig()
	if cfg.Database.Path != "" {
		dbCfg.Path = cfg.Database.Path
	}
	database := sqlite.NewSQLiteDB(dbCfg)
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Str("path", dbCfg.Path).Msg("Failed to connect to database")
	}
	defer database.Close()

	storeMode, err := persistence.SelectMode(cfg.Storage.Mode, cfg.Storage.APILevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid storage configuration")
	}
	store, err := persistence.NewMediaStore(storeMode, cfg.Storage.Root, database.DB())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up media store")
	}
	saver := application.NewSaver(store)
	ctx := context.Background()

	var outcome *domain.SaveOutcome
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *imagePath).Msg("Failed to read image")
		}
		ext := *extension
		if ext == "" {
			ext = application.ExtensionOf(*imagePath)
		}
		displayName := *name
		if displayName == "" {
			displayName = strings.TrimSuffix(filepath.Base(*imagePath), filepath.Ext(*imagePath))
		}
		outcome = saver.SaveImage(ctx, &domain.SaveImageRequest{
			Image:        data,
			Quality:      *quality,
			Name:         displayName,
			Extension:    ext,
			RelativePath: *relativePath,
			SkipIfExists: *skipIfExists,
		})
	} else {
		outcome = saver.SaveFile(ctx, &domain.SaveFileRequest{
			Path:         *filePath,
			Name:         *name,
			RelativePath: *relativePath,
			SkipIfExists: *skipIfExists,
		})
	}

	out, err := json.MarshalIndent(outcome.ToMap(), "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render outcome")
	}
	fmt.Println(string(out))

	if !outcome.IsSuccess {
		database.Close()
		os.Exit(1)
	}
}

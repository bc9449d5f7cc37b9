// Command import-locations loads the province/district/ward dataset from
// a JSON dump into MySQL, replacing whatever the lookup tables currently
// hold. The expected file shape is the nested export of the national
// administrative-unit dataset:
//
//	[{"id":1,"code":"01","name":"...","districts":[{"id":...,"wards":[...]}]}]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/database"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/repository"
)

type wardJSON struct {
	ID   uint64 `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type districtJSON struct {
	ID    uint64     `json:"id"`
	Code  string     `json:"code"`
	Name  string     `json:"name"`
	Wards []wardJSON `json:"wards"`
}

type provinceJSON struct {
	ID        uint64         `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Districts []districtJSON `json:"districts"`
}

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	file := flag.String("file", "locations.json", "path to the locations JSON dump")
	flag.Parse()

	cfg := config.Load()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read dump")
	}
	var provinces []provinceJSON
	if err := json.Unmarshal(raw, &provinces); err != nil {
		log.Fatal().Err(err).Msg("parse dump")
	}

	var ps []model.Province
	var ds []model.District
	var ws []model.Ward
	for _, p := range provinces {
		ps = append(ps, model.Province{ID: p.ID, Code: p.Code, Name: p.Name})
		for _, d := range p.Districts {
			ds = append(ds, model.District{ID: d.ID, Code: d.Code, Name: d.Name, ProvinceID: p.ID})
			for _, w := range d.Wards {
				ws = append(ws, model.Ward{ID: w.ID, Code: w.Code, Name: w.Name, DistrictID: d.ID})
			}
		}
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := repository.NewLocationRepo(db).ReplaceAll(ctx, ps, ds, ws); err != nil {
		log.Fatal().Err(err).Msg("import locations")
	}
	log.Info().Int("provinces", len(ps)).Int("districts", len(ds)).Int("wards", len(ws)).Msg("import complete")
}
